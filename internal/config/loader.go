package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load loads and validates configuration from, in order of precedence:
// 1. BOT_* environment variables
// 2. config.yaml in the working directory
// 3. default values
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("BOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so keys
	// without a default or a config file entry need an explicit bind for
	// their BOT_* variable to reach Unmarshal.
	for _, key := range []string{"telegram.token", "telegram.admin_user_id", "redis.password"} {
		if err := viper.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env var for %s: %w", key, err)
		}
	}

	// A missing config file is fine, env vars and defaults still apply.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.format", DefaultLogFormat)

	viper.SetDefault("database.path", DefaultDBPath)

	viper.SetDefault("redis.addr", DefaultRedisAddr)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("scheduler.sweep_interval", DefaultSweepInterval)

	viper.SetDefault("game.duel_duration", DefaultDuelDuration)
	viper.SetDefault("game.mute_duration", DefaultMuteDuration)

	viper.SetDefault("countdown.target_date", DefaultCountdownTarget)
}
