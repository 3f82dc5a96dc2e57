package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Practice.OverrunGuard)

	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestResolveFromFile(t *testing.T) {
	path := writeFile(t, "config.toml", `
[practice]
overrun-guard = 4

[history]
backend = "Redis"
retention = "720h"
redis-url = "cache:6379"
redis-db = 2

[llm]
enabled = false
model = "mistral"
timeout = "30s"

[server]
addr = ":8080"

[log]
format = "json"
`)
	fc, err := LoadConfig(path)
	require.NoError(t, err)
	s, err := Resolve(fc)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Practice.OverrunGuard)
	assert.Equal(t, BackendRedis, s.History.Backend)
	assert.Equal(t, 720*time.Hour, s.History.Retention)
	assert.Equal(t, "cache:6379", s.History.RedisAddr)
	assert.Equal(t, 2, s.History.RedisDB)
	assert.False(t, s.LLM.Enabled)
	assert.Equal(t, "mistral", s.LLM.Model)
	assert.Equal(t, 30*time.Second, s.LLM.Timeout)
	assert.Equal(t, "http://localhost:11434/v1", s.LLM.BaseURL)
	assert.Equal(t, ":8080", s.Server.Addr)
	assert.Equal(t, "http://localhost:3000", s.Server.AllowedOrigin)
	assert.Equal(t, "json", s.Log.Format)
}

func TestResolveDefaults(t *testing.T) {
	s, err := Resolve(FileConfig{})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
	assert.Equal(t, 10, s.Practice.OverrunGuard)
	assert.Equal(t, BackendSQLite, s.History.Backend)
	assert.Equal(t, "llama3", s.LLM.Model)
}

func TestResolveRejectsInvalidValues(t *testing.T) {
	neg := -1
	bad := "mongo"
	dur := "soon"
	zero := "0s"
	tests := []struct {
		name string
		cfg  FileConfig
	}{
		{"negative guard", FileConfig{Practice: PracticeConfig{OverrunGuard: &neg}}},
		{"unknown backend", FileConfig{History: HistoryConfig{Backend: &bad}}},
		{"bad duration", FileConfig{History: HistoryConfig{Retention: &dur}}},
		{"zero retention", FileConfig{History: HistoryConfig{Retention: &zero}}},
		{"zero attempts", FileConfig{LLM: LLMConfig{MaxAttempts: new(int)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	file := "http://file:5000"
	cfg := FileConfig{Source: SourceConfig{APIURL: &file}}
	env := map[string]string{
		"TYPEFAST_API_URL":   "http://env:5000",
		"TYPEFAST_LLM_MODEL": "phi3",
		"OPENAI_API_KEY":     "sk-test",
		"TYPEFAST_REDIS_URL": "redis:6379",
	}
	ApplyEnv(&cfg, func(k string) string { return env[k] })

	require.NotNil(t, cfg.Source.APIURL)
	assert.Equal(t, "http://env:5000", *cfg.Source.APIURL)
	assert.Equal(t, "phi3", *cfg.LLM.Model)
	assert.Equal(t, "sk-test", *cfg.LLM.APIKey)
	assert.Equal(t, "redis:6379", *cfg.History.RedisURL)
	assert.Nil(t, cfg.LLM.BaseURL)
}

func TestApplyEnvPrefersTypefastKey(t *testing.T) {
	var cfg FileConfig
	env := map[string]string{"TYPEFAST_LLM_API_KEY": "own", "OPENAI_API_KEY": "shared"}
	ApplyEnv(&cfg, func(k string) string { return env[k] })
	assert.Equal(t, "own", *cfg.LLM.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := writeFile(t, ".env", "TYPEFAST_DOTENV_PROBE=from-file\n")
	t.Setenv("TYPEFAST_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("TYPEFAST_DOTENV_PROBE"))
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("TYPEFAST_DOTENV_PROBE"))
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	assert.Equal(t, filepath.Join("/cfg", "typefast", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/data", "typefast", "typefast.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join("/state", "typefast", "typefast.log"), DefaultLogPath())
}
