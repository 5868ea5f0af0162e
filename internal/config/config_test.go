package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
scoring:
  base_url: http://prediction:9000
quote:
  base_url: http://quote:9100
wallet:
  base_url: http://wallet:9200
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Scoring.Provider)
	assert.Equal(t, 15*time.Second, cfg.MonitorInterval())
	assert.Equal(t, 10, cfg.Monitor.Concurrency)
	assert.Equal(t, 8080, cfg.Web.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10*time.Second, cfg.QuoteTimeout())
	assert.Equal(t, 20*time.Second, cfg.WalletTimeout())
}

func TestLoadLLMProviderRequiresKey(t *testing.T) {
	path := writeConfig(t, `
scoring:
  provider: llm
quote:
  base_url: http://quote:9100
wallet:
  base_url: http://wallet:9200
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "scoring.api_key")
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
scoring:
  provider: psychic
quote:
  base_url: http://quote:9100
wallet:
  base_url: http://wallet:9200
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "scoring.provider")
}

func TestLoadRejectsBadInterval(t *testing.T) {
	path := writeConfig(t, `
scoring:
  base_url: http://prediction:9000
quote:
  base_url: http://quote:9100
wallet:
  base_url: http://wallet:9200
monitor:
  interval: often
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "monitor.interval")
}

func TestLoadTelegramValidation(t *testing.T) {
	path := writeConfig(t, `
scoring:
  base_url: http://prediction:9000
quote:
  base_url: http://quote:9100
wallet:
  base_url: http://wallet:9200
telegram:
  enabled: true
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "telegram.bot_token")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
