package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/llm"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "ENV", "DATABASE_URL", "SQLITE_PATH", "REDIS_URL", "STATIC_DIR",
		"RATE_LIMIT_WHITELIST", "AUTO_BLOCK_ENABLED", "AI_INTEGRATIONS_OPENAI_BASE_URL",
		"AI_INTEGRATIONS_OPENAI_API_KEY", "AI_MODEL", "AI_TIMEOUT", "LEDGER_OWNER",
		"LEDGER_INITIAL_SUPPLY", "MEETING_SCHEDULES", "CONFIG_FILE",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, llm.DefaultModel, cfg.AI.Model)
	assert.Equal(t, llm.DefaultBaseURL, cfg.AI.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, uint64(100_000_000), cfg.Ledger.InitialSupply)
	assert.Empty(t, cfg.Meetings)
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 192.168.0.0/16,")
	t.Setenv("AUTO_BLOCK_ENABLED", "true")
	t.Setenv("AI_MODEL", "gpt-test")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("LEDGER_INITIAL_SUPPLY", "42")
	t.Setenv("MEETING_SCHEDULES", "daily=0 9 * * *")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, cfg.RateLimitWhitelist)
	assert.True(t, cfg.AutoBlockEnabled)
	assert.Equal(t, "gpt-test", cfg.AI.Model)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.Equal(t, uint64(42), cfg.Ledger.InitialSupply)
	require.Len(t, cfg.Meetings, 1)
	assert.Equal(t, models.MeetingDaily, cfg.Meetings[0].Type)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
ai:
  model: yaml-model
  base_url: http://llm.local/v1
ledger:
  owner: "0x1111111111111111111111111111111111111111"
  initial_supply: 5
schedules:
  - type: weekly
    spec: "0 9 * * 1"
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("AI_MODEL", "env-model")

	cfg := Load()
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "env-model", cfg.AI.Model)
	assert.Equal(t, "http://llm.local/v1", cfg.AI.BaseURL)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", cfg.Ledger.Owner)
	assert.Equal(t, uint64(5), cfg.Ledger.InitialSupply)
	require.Len(t, cfg.Meetings, 1)
	assert.Equal(t, models.MeetingWeekly, cfg.Meetings[0].Type)
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "production without ai key", env: map[string]string{"ENV": "production", "SQLITE_PATH": "x.db"}},
		{name: "production without store", env: map[string]string{"ENV": "production", "AI_INTEGRATIONS_OPENAI_API_KEY": "k"}},
		{name: "bad timeout", env: map[string]string{"AI_TIMEOUT": "soon"}},
		{name: "bad schedule", env: map[string]string{"MEETING_SCHEDULES": "hourly=@hourly"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Panics(t, func() { Load() })
		})
	}
}
