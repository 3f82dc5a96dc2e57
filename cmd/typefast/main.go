// Package main provides the CLI entrypoint for typefast.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/typefast/internal/config"
	"github.com/verte-zerg/typefast/internal/concepts"
	"github.com/verte-zerg/typefast/internal/logging"
	"github.com/verte-zerg/typefast/internal/model"
	"github.com/verte-zerg/typefast/internal/session"
	"github.com/verte-zerg/typefast/internal/tui"
)

var (
	practiceAPIURL         string
	practiceOverrunGuard   int
	practiceHistoryBackend string

	historyFormat  string
	historyReset   bool
	historyBackend string

	extractAPIURL string

	serveAddr string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typefast <file>",
		Short:         "Typing practice on concepts extracted from your notes",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceAPIURL, "api-url", "", "analysis service URL (empty: analyze locally)")
	rootCmd.Flags().IntVar(&practiceOverrunGuard, "overrun-guard", session.DefaultOverrunGuard, "extra characters allowed past the target word")
	rootCmd.Flags().StringVar(&practiceHistoryBackend, "history-backend", config.BackendSQLite, "history storage (sqlite|redis)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// loadSettings merges defaults, the config file, the environment and the
// flags of cmd, in increasing precedence.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return config.Settings{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(&fileCfg, os.Getenv)

	applyStringFlag(cmd, "api-url", &fileCfg.Source.APIURL)
	applyIntFlag(cmd, "overrun-guard", &fileCfg.Practice.OverrunGuard)
	applyStringFlag(cmd, "history-backend", &fileCfg.History.Backend)
	applyStringFlag(cmd, "addr", &fileCfg.Server.Addr)

	settings, err := config.Resolve(fileCfg)
	if err != nil {
		return config.Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}

func runPracticeCmd(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("practice needs an interactive terminal; use `typefast extract` for scripting")
	}
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	logFile, err := logging.OpenFile(settings.Log.File)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}()
	log := logging.New(logging.Config{Level: settings.Log.Level, Format: settings.Log.Format}, logFile)

	ctx := context.Background()
	ledger, closeLedger, err := openLedger(ctx, settings, log)
	if err != nil {
		return err
	}
	defer closeLedger()

	path := args[0]
	src := newSource(settings, log)
	ctrl := session.NewController(ledger, session.Options{
		OverrunGuard: session.Guard(settings.Practice.OverrunGuard),
		Logger:       log,
	})
	m := tui.NewModel(ctrl, tui.Options{
		Path: path,
		Load: func(ctx context.Context) ([]model.Concept, error) {
			return concepts.Load(ctx, src, path)
		},
		History: ledger,
		Logger:  log,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return errors.New("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// applyStringFlag copies a changed flag of cmd into target. Values are read
// from cmd's own flag set, so commands sharing a flag name stay independent.
func applyStringFlag(cmd *cobra.Command, name string, target **string) {
	if f := cmd.Flags().Lookup(name); f == nil || !f.Changed {
		return
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return
	}
	*target = &v
}

func applyIntFlag(cmd *cobra.Command, name string, target **int) {
	if f := cmd.Flags().Lookup(name); f == nil || !f.Changed {
		return
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return
	}
	*target = &v
}

func defaultConfigTemplate() string {
	d := config.Defaults()
	return fmt.Sprintf(`# typefast configuration
# Uncomment a value to enable it. Environment variables and CLI flags override config values.

[practice]
# overrun-guard = %d        # Extra characters allowed past the target word

[history]
# backend = %q          # sqlite or redis
# retention = %q         # How long the history is kept
# db-path = %q
# redis-url = %q
# redis-password = ""
# redis-db = 0

[source]
# api-url = "http://localhost:5000"   # Remote analysis service; empty analyzes locally

[llm]
# enabled = true
# base-url = %q
# model = %q
# api-key = ""                 # Falls back to OPENAI_API_KEY
# max-attempts = %d
# temperature = %.1f
# max-tokens = %d
# timeout = %q

[server]
# addr = %q
# allowed-origin = %q

[log]
# level = %q
# format = %q           # console or json
# file = %q
`,
		d.Practice.OverrunGuard,
		d.History.Backend,
		d.History.Retention.String(),
		d.History.DBPath,
		d.History.RedisAddr,
		d.LLM.BaseURL,
		d.LLM.Model,
		d.LLM.MaxAttempts,
		d.LLM.Temperature,
		d.LLM.MaxTokens,
		d.LLM.Timeout.String(),
		d.Server.Addr,
		d.Server.AllowedOrigin,
		d.Log.Level,
		d.Log.Format,
		d.Log.File,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
