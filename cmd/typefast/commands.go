package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/typefast/internal/concepts"
	"github.com/verte-zerg/typefast/internal/config"
	"github.com/verte-zerg/typefast/internal/logging"
	"github.com/verte-zerg/typefast/internal/model"
	"github.com/verte-zerg/typefast/internal/server"
	"github.com/verte-zerg/typefast/internal/stats"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or reset session history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyFormat, "format", "table", "output format (table|json|yaml)")
	cmd.Flags().BoolVar(&historyReset, "reset", false, "delete the stored history")
	cmd.Flags().StringVar(&historyBackend, "history-backend", config.BackendSQLite, "history storage (sqlite|redis)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{Level: settings.Log.Level, Format: settings.Log.Format}, os.Stderr)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ledger, closeLedger, err := openLedger(ctx, settings, log)
	if err != nil {
		return err
	}
	defer closeLedger()

	if historyReset {
		if err := ledger.Reset(ctx); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "History cleared (%s)\n", describeBackend(settings))
		return err
	}

	agg, err := ledger.Load(ctx)
	if err != nil {
		return err
	}
	return writeHistory(cmd.OutOrStdout(), agg, historyFormat)
}

func writeHistory(w io.Writer, agg model.HistoryAggregate, format string) error {
	switch strings.ToLower(format) {
	case "table", "":
		return stats.RenderHistory(w, agg)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(agg)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(agg); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (table|json|yaml)", format)
	}
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract concepts from a file and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtractCmd,
	}
	cmd.Flags().StringVar(&extractAPIURL, "api-url", "", "analysis service URL (empty: analyze locally)")
	return cmd
}

func runExtractCmd(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{Level: settings.Log.Level, Format: settings.Log.Format}, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	found, err := concepts.Load(ctx, newSource(settings, log), args[0])
	resp := concepts.Response{Concepts: found}
	if err != nil {
		resp.Error = err.Error()
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(resp); encErr != nil {
		return encErr
	}
	return err
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the concept analysis HTTP service",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :5000)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{Level: settings.Log.Level, Format: settings.Log.Format}, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(newAnalyzer(settings, log), server.Options{
		Addr:          settings.Server.Addr,
		AllowedOrigin: settings.Server.AllowedOrigin,
		Logger:        log,
	})
	log.Debug().Str("model", settings.LLM.Model).Bool("llm", settings.LLM.Enabled).Msg("analyzer configured")
	return srv.ListenAndServe(ctx)
}
