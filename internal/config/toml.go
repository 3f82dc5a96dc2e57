// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	History  HistoryConfig  `toml:"history"`
	Source   SourceConfig   `toml:"source"`
	LLM      LLMConfig      `toml:"llm"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	OverrunGuard *int `toml:"overrun-guard"`
}

// HistoryConfig selects where the session history lives.
type HistoryConfig struct {
	Backend       *string `toml:"backend"`
	Retention     *string `toml:"retention"`
	DBPath        *string `toml:"db-path"`
	RedisURL      *string `toml:"redis-url"`
	RedisPassword *string `toml:"redis-password"`
	RedisDB       *int    `toml:"redis-db"`
}

// SourceConfig points at a remote analysis service.
type SourceConfig struct {
	APIURL *string `toml:"api-url"`
}

// LLMConfig maps the OpenAI-compatible endpoint used for local analysis.
type LLMConfig struct {
	Enabled     *bool    `toml:"enabled"`
	BaseURL     *string  `toml:"base-url"`
	Model       *string  `toml:"model"`
	APIKey      *string  `toml:"api-key"`
	MaxAttempts *int     `toml:"max-attempts"`
	Temperature *float64 `toml:"temperature"`
	MaxTokens   *int     `toml:"max-tokens"`
	Timeout     *string  `toml:"timeout"`
}

// ServerConfig maps the analysis service settings.
type ServerConfig struct {
	Addr          *string `toml:"addr"`
	AllowedOrigin *string `toml:"allowed-origin"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
	File   *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
