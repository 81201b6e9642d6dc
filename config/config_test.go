package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	t.Setenv(key, value)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
env: paper
broker: roy
log_level: debug
alpaca:
  api_key: key-from-file
  api_secret: secret-from-file
order_db: /tmp/orders.db
profiles:
  - name: roy
    time_in_force: day
    poll_interval: 1s
    order_timeout: 5s
`)
	setEnv(t, "BROKER_NAME", "")
	setEnv(t, "ALPACA_API_KEY", "")
	setEnv(t, "ALPACA_API_SECRET", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, EnvPaper, cfg.Env)
	assert.Equal(t, "roy", cfg.Broker)
	assert.Equal(t, "key-from-file", cfg.Alpaca.APIKey)
	assert.Equal(t, "/tmp/orders.db", cfg.OrderDB)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
env: paper
broker: roy
alpaca:
  api_key: file-key
  api_secret: file-secret
`)
	setEnv(t, "ALPACA_API_KEY", "env-key")
	setEnv(t, "BROKER_NAME", "moss")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Alpaca.APIKey)
	assert.Equal(t, "moss", cfg.Broker)
}

func TestMissingRequiredKey(t *testing.T) {
	path := writeConfig(t, `
env: paper
broker: roy
alpaca:
  api_secret: secret
`)
	setEnv(t, "ALPACA_API_KEY", "")

	_, err := Load(path)
	require.Error(t, err)
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "ALPACA_API_KEY", missing.Key)
}

func TestInvalidEnvRejected(t *testing.T) {
	path := writeConfig(t, `
env: staging
broker: roy
alpaca:
  api_key: k
  api_secret: s
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, `invalid env "staging"`)
}

func TestDefaults(t *testing.T) {
	path := writeConfig(t, `
broker: roy
alpaca:
  api_key: k
  api_secret: s
`)
	setEnv(t, "TRADEDESK_ENV", "")
	setEnv(t, "BROKER_NAME", "")
	setEnv(t, "ALPACA_API_KEY", "")
	setEnv(t, "ALPACA_API_SECRET", "")
	setEnv(t, "ORDER_DB", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, EnvPaper, cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "./orders.db", cfg.OrderDB)
}

func TestProfileParsing(t *testing.T) {
	pc := ProfileConfig{Name: "roy", TimeInForce: "day", PollInterval: "500ms", OrderTimeout: "10s"}
	p, err := pc.ToProfile()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, p.PollInterval)
	assert.Equal(t, 10*time.Second, p.OrderTimeout)
}

func TestProfilePollExceedingTimeoutRejected(t *testing.T) {
	pc := ProfileConfig{Name: "roy", PollInterval: "10s", OrderTimeout: "1s"}
	_, err := pc.ToProfile()
	assert.ErrorContains(t, err, "poll_interval exceeds order_timeout")
}

func TestClockDefaultsToUSSession(t *testing.T) {
	cfg := &Config{}
	clock, err := cfg.Clock()
	require.NoError(t, err)
	assert.True(t, clock.IsOpen(time.Date(2026, 6, 3, 15, 0, 0, 0, time.UTC)))
	assert.False(t, clock.IsOpen(time.Date(2026, 6, 3, 13, 0, 0, 0, time.UTC)))
}

func TestClockCustomHours(t *testing.T) {
	cfg := &Config{}
	cfg.Market.Open = "8h"
	cfg.Market.Close = "16h30m"

	clock, err := cfg.Clock()
	require.NoError(t, err)
	assert.True(t, clock.IsOpen(time.Date(2026, 6, 3, 9, 0, 0, 0, time.UTC)))
	assert.False(t, clock.IsOpen(time.Date(2026, 6, 3, 17, 0, 0, 0, time.UTC)))
}

func TestClockOpenAfterCloseRejected(t *testing.T) {
	cfg := &Config{}
	cfg.Market.Open = "20h"
	cfg.Market.Close = "13h30m"

	_, err := cfg.Clock()
	assert.ErrorContains(t, err, "not before close")
}

func TestRegistryAlwaysCoversActiveBroker(t *testing.T) {
	path := writeConfig(t, `
broker: roy
alpaca:
  api_key: k
  api_secret: s
`)
	setEnv(t, "BROKER_NAME", "")
	setEnv(t, "ALPACA_API_KEY", "")
	setEnv(t, "ALPACA_API_SECRET", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	_, err = reg.Lookup("roy")
	assert.NoError(t, err)
}
