// Package config manages application configuration from config.yaml,
// BOT_* environment variables, and default values.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration for all components of the bot.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Game      GameConfig      `mapstructure:"game"`
	Countdown CountdownConfig `mapstructure:"countdown"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// TelegramConfig holds the bot token and the admin account.
type TelegramConfig struct {
	Token       string `mapstructure:"token"         validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"required,gt=0"`

	// BotInfo is filled in at startup from GetMe, not from the config file.
	BotInfo *models.User `mapstructure:"-"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// RedisConfig holds the connection settings for the ephemeral member cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

// SchedulerConfig controls the background sweep loop.
type SchedulerConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"required,min=5s,max=10m"`
}

// GameConfig controls duel and mute durations.
type GameConfig struct {
	DuelDuration time.Duration `mapstructure:"duel_duration" validate:"required,min=1m,max=1h"`
	MuteDuration time.Duration `mapstructure:"mute_duration" validate:"required,min=1m,max=24h"`
}

// CountdownConfig holds the target date for the !когда command.
// The date is interpreted in the bot's local timezone.
type CountdownConfig struct {
	TargetDate string `mapstructure:"target_date" validate:"required,datetime=02.01.2006 15:04"`
}

// TargetTime parses the configured countdown date. The format has already
// been validated at load time.
func (c CountdownConfig) TargetTime() time.Time {
	t, _ := time.ParseInLocation("02.01.2006 15:04", c.TargetDate, time.Local)
	return t
}
