package config

import "time"

// Default values for optional configuration parameters.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultDBPath = "starosta.db"

	DefaultRedisAddr = "localhost:6379"

	// How often the background loop sweeps due reminders and expired duels.
	DefaultSweepInterval = 30 * time.Second

	DefaultDuelDuration = 10 * time.Minute
	DefaultMuteDuration = 10 * time.Minute

	DefaultCountdownTarget = "27.11.2025 00:00"
)
