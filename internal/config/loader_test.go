package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvOnly(t *testing.T) {
	viper.Reset()
	t.Setenv("BOT_TELEGRAM_TOKEN", "123456:test-token")
	t.Setenv("BOT_TELEGRAM_ADMIN_USER_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)

	// Keys with no default still arrive through their BOT_* variables.
	assert.Equal(t, "123456:test-token", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.AdminUserID)

	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultSweepInterval, cfg.Scheduler.SweepInterval)
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	viper.Reset()
	t.Setenv("BOT_TELEGRAM_TOKEN", "123456:test-token")
	t.Setenv("BOT_TELEGRAM_ADMIN_USER_ID", "42")
	t.Setenv("BOT_LOG_LEVEL", "debug")
	t.Setenv("BOT_REDIS_PASSWORD", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "hunter2", cfg.Redis.Password)
}

func TestLoadWithoutTokenFails(t *testing.T) {
	viper.Reset()
	t.Setenv("BOT_TELEGRAM_TOKEN", "")
	t.Setenv("BOT_TELEGRAM_ADMIN_USER_ID", "42")

	_, err := Load()
	require.Error(t, err)
}
