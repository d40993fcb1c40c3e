package upload

import "time"

// Config holds transfer tuning.
type Config struct {
	// Concurrency bounds parallel transfers inside a batch.
	Concurrency int `mapstructure:"concurrency" default:"4"`
	// MaxAttempts bounds transfer attempts per file.
	MaxAttempts int `mapstructure:"max_attempts" default:"5"`
	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay" default:"2s"`
}

func (c Config) concurrency() int {
	if c.Concurrency <= 0 {
		return 4
	}
	return c.Concurrency
}

func (c Config) attempts() int {
	if c.MaxAttempts <= 0 {
		return 5
	}
	return c.MaxAttempts
}
