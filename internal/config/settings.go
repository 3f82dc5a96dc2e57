package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// History backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Settings is the fully resolved configuration.
type Settings struct {
	Practice PracticeSettings
	History  HistorySettings
	Source   SourceSettings
	LLM      LLMSettings
	Server   ServerSettings
	Log      LogSettings
}

type PracticeSettings struct {
	OverrunGuard int
}

type HistorySettings struct {
	Backend       string
	Retention     time.Duration
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type SourceSettings struct {
	// APIURL selects the remote analysis service; empty analyzes locally.
	APIURL string
}

type LLMSettings struct {
	Enabled     bool
	BaseURL     string
	Model       string
	APIKey      string
	MaxAttempts int
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type ServerSettings struct {
	Addr          string
	AllowedOrigin string
}

type LogSettings struct {
	Level  string
	Format string
	File   string
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Practice: PracticeSettings{OverrunGuard: 10},
		History: HistorySettings{
			Backend:   BackendSQLite,
			Retention: 365 * 24 * time.Hour,
			DBPath:    DefaultDBPath(),
			RedisAddr: "localhost:6379",
		},
		LLM: LLMSettings{
			Enabled:     true,
			BaseURL:     "http://localhost:11434/v1",
			Model:       "llama3",
			MaxAttempts: 3,
			Temperature: 0.1,
			MaxTokens:   3000,
			Timeout:     120 * time.Second,
		},
		Server: ServerSettings{
			Addr:          ":5000",
			AllowedOrigin: "http://localhost:3000",
		},
		Log: LogSettings{
			Level:  "info",
			Format: "console",
			File:   DefaultLogPath(),
		},
	}
}

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides file values with TYPEFAST_* environment variables.
func ApplyEnv(cfg *FileConfig, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	setString := func(target **string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*target = &v
				return
			}
		}
	}
	setString(&cfg.Source.APIURL, "TYPEFAST_API_URL")
	setString(&cfg.LLM.BaseURL, "TYPEFAST_LLM_BASE_URL")
	setString(&cfg.LLM.Model, "TYPEFAST_LLM_MODEL")
	setString(&cfg.LLM.APIKey, "TYPEFAST_LLM_API_KEY")
	if cfg.LLM.APIKey == nil {
		setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	}
	setString(&cfg.History.RedisURL, "TYPEFAST_REDIS_URL")
	setString(&cfg.Log.Level, "TYPEFAST_LOG_LEVEL")
}

// Resolve merges cfg over the defaults and validates the result.
func Resolve(cfg FileConfig) (Settings, error) {
	s := Defaults()

	setInt(&s.Practice.OverrunGuard, cfg.Practice.OverrunGuard)

	setString(&s.History.Backend, cfg.History.Backend)
	s.History.Backend = strings.ToLower(s.History.Backend)
	if err := setDuration(&s.History.Retention, cfg.History.Retention, "history.retention"); err != nil {
		return Settings{}, err
	}
	setString(&s.History.DBPath, cfg.History.DBPath)
	setString(&s.History.RedisAddr, cfg.History.RedisURL)
	setString(&s.History.RedisPassword, cfg.History.RedisPassword)
	setInt(&s.History.RedisDB, cfg.History.RedisDB)

	setString(&s.Source.APIURL, cfg.Source.APIURL)

	if cfg.LLM.Enabled != nil {
		s.LLM.Enabled = *cfg.LLM.Enabled
	}
	setString(&s.LLM.BaseURL, cfg.LLM.BaseURL)
	setString(&s.LLM.Model, cfg.LLM.Model)
	setString(&s.LLM.APIKey, cfg.LLM.APIKey)
	setInt(&s.LLM.MaxAttempts, cfg.LLM.MaxAttempts)
	if cfg.LLM.Temperature != nil {
		s.LLM.Temperature = *cfg.LLM.Temperature
	}
	setInt(&s.LLM.MaxTokens, cfg.LLM.MaxTokens)
	if err := setDuration(&s.LLM.Timeout, cfg.LLM.Timeout, "llm.timeout"); err != nil {
		return Settings{}, err
	}

	setString(&s.Server.Addr, cfg.Server.Addr)
	setString(&s.Server.AllowedOrigin, cfg.Server.AllowedOrigin)

	setString(&s.Log.Level, cfg.Log.Level)
	setString(&s.Log.Format, cfg.Log.Format)
	setString(&s.Log.File, cfg.Log.File)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if s.Practice.OverrunGuard < 0 {
		return fmt.Errorf("practice.overrun-guard must be >= 0")
	}
	switch s.History.Backend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("history.backend must be %q or %q", BackendSQLite, BackendRedis)
	}
	if s.History.Retention <= 0 {
		return fmt.Errorf("history.retention must be > 0")
	}
	if s.LLM.MaxAttempts < 1 {
		return fmt.Errorf("llm.max-attempts must be >= 1")
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if s.LLM.MaxTokens < 1 {
		return fmt.Errorf("llm.max-tokens must be >= 1")
	}
	switch strings.ToLower(s.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console")
	}
	return nil
}

func setString(target *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*target = strings.TrimSpace(*v)
	}
}

func setInt(target *int, v *int) {
	if v != nil {
		*target = *v
	}
}

func setDuration(target *time.Duration, v *string, name string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*v))
	if err != nil {
		return fmt.Errorf("%s=%q is not a valid duration: %w", name, *v, err)
	}
	*target = d
	return nil
}
