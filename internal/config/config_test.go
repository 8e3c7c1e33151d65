package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lendflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hexKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lendflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Storage.Redis.TTL)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.InDelta(t, 0.7, cfg.LLM.Conversational, 0.001)
	assert.InDelta(t, 0.3, cfg.LLM.Analytical, 0.001)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.Equal(t, 5*time.Second, cfg.Bureau.Timeout)
	assert.False(t, cfg.LLM.Enabled())
	assert.True(t, cfg.Telemetry.Metrics)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  cors_origins: ["http://localhost:3000"]
storage:
  driver: sqlite
  sqlite:
    path: /tmp/lendflow.db
llm:
  base_url: https://api.groq.com/openai/v1
  api_key: ${GROQ_TEST_KEY}
  model: llama-3.1-70b
privacy:
  pii_keys: ["^pan_number$"]
`)
	t.Setenv("GROQ_TEST_KEY", "gsk-123")
	t.Setenv("LENDFLOW_SERVER__PORT", "9100")
	t.Setenv("LENDFLOW_BUREAU__API_KEY", "bureau-secret")
	t.Setenv("LENDFLOW_LLM__TIMEOUT", "10s")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, config.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/lendflow.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, "gsk-123", cfg.LLM.APIKey)
	assert.Equal(t, "llama-3.1-70b", cfg.LLM.Model)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.LLM.Enabled())
	assert.Equal(t, "bureau-secret", cfg.Bureau.APIKey)
	assert.Equal(t, []string{"^pan_number$"}, cfg.Privacy.PIIKeys)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"driver", "storage:\n  driver: postgres\n", "storage.driver"},
		{"lock without redis", "lock:\n  enabled: true\n", "lock.enabled"},
		{"log format", "log:\n  format: xml\n", "log.format"},
		{"short key", "privacy:\n  encryption_key: abcd\n", "encryption_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestPrivacyKeys(t *testing.T) {
	p := config.PrivacyConfig{
		EncryptionKey: hexKey,
		FallbackKeys:  []string{"AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8="},
	}
	active, fallback, err := p.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, active, fallback[0], "hex and base64 spell the same key")

	_, err = config.DecodeKey("not a key")
	assert.Error(t, err)
}
