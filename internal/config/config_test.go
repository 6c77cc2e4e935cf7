package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "NSE_FO", cfg.Bot.Exchange)
	assert.Equal(t, 0.5, cfg.Bot.TickSize)
	assert.Equal(t, 2, cfg.Bot.MaxCycles)
	assert.Equal(t, 1.0, cfg.Bot.SlippagePercent)
	assert.Equal(t, 500, cfg.Bot.PollIntervalMs)
	assert.Equal(t, "09:16", cfg.Session.Open)
	assert.Equal(t, "15:15", cfg.Session.Cutoff)
	assert.Equal(t, 10, cfg.Session.StaleAfterSec)
	assert.Equal(t, 5, cfg.Session.MaxReconnects)
}

func TestEnvSub(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("UPSTOX_TOKEN", "secret-token")
	viper.Set("exchange.token", "${UPSTOX_TOKEN}")
	viper.Set("exchange.api_key", "plain-value")

	assert.Equal(t, "secret-token", envSub("exchange.token"))
	assert.Equal(t, "plain-value", envSub("exchange.api_key"))
	assert.Equal(t, "", envSub("exchange.missing"))
}
