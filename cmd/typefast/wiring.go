package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/typefast/internal/concepts"
	"github.com/verte-zerg/typefast/internal/config"
	"github.com/verte-zerg/typefast/internal/history"
	"github.com/verte-zerg/typefast/internal/llm"
	"github.com/verte-zerg/typefast/internal/store"
)

// openLedger opens the configured history backend. The returned func closes it.
func openLedger(ctx context.Context, settings config.Settings, log zerolog.Logger) (*history.Ledger, func(), error) {
	switch settings.History.Backend {
	case config.BackendRedis:
		st, err := store.OpenRedis(ctx, store.RedisConfig{
			Addr:     settings.History.RedisAddr,
			Password: settings.History.RedisPassword,
			DB:       settings.History.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := st.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close redis")
			}
		}
		return history.NewLedger(st, settings.History.Retention, log), closeFn, nil
	default:
		st, err := store.Open(settings.History.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if n, err := st.Purge(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to purge expired history")
		} else if n > 0 {
			log.Debug().Int64("rows", n).Msg("purged expired history")
		}
		closeFn := func() {
			if err := st.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close database")
			}
		}
		return history.NewLedger(st, settings.History.Retention, log), closeFn, nil
	}
}

// newSource picks where concepts come from: the remote analysis service
// when an API URL is configured, the local analyzer otherwise.
func newSource(settings config.Settings, log zerolog.Logger) concepts.Source {
	if settings.Source.APIURL != "" {
		return concepts.NewClient(settings.Source.APIURL, nil)
	}
	return newAnalyzer(settings, log)
}

func newAnalyzer(settings config.Settings, log zerolog.Logger) *concepts.Analyzer {
	if !settings.LLM.Enabled {
		return concepts.NewAnalyzer(nil, settings.LLM.MaxAttempts, log)
	}
	client, err := llm.New(llm.Config{
		BaseURL:     settings.LLM.BaseURL,
		APIKey:      settings.LLM.APIKey,
		Model:       settings.LLM.Model,
		Temperature: settings.LLM.Temperature,
		MaxTokens:   settings.LLM.MaxTokens,
		Timeout:     settings.LLM.Timeout,
	})
	if err != nil {
		log.Warn().Err(err).Msg("llm disabled")
		return concepts.NewAnalyzer(nil, settings.LLM.MaxAttempts, log)
	}
	log.Debug().Str("model", client.Model()).Str("base_url", settings.LLM.BaseURL).Msg("llm enabled")
	return concepts.NewAnalyzer(client, settings.LLM.MaxAttempts, log)
}

func describeBackend(settings config.Settings) string {
	if settings.History.Backend == config.BackendRedis {
		return fmt.Sprintf("redis://%s/%d", settings.History.RedisAddr, settings.History.RedisDB)
	}
	return settings.History.DBPath
}
