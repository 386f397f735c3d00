package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cenkalti/backoff/v4"
)

// Duration wraps time.Duration so TOML files can use strings like
// "250ms" or "1m30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the wrapped time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration document.
type Config struct {
	Queue    QueueConfig    `toml:"queue"`
	Retry    RetryConfig    `toml:"retry"`
	Schedule ScheduleConfig `toml:"schedule"`
}

// QueueConfig configures the worker queue.
type QueueConfig struct {
	// Concurrency is the number of operations allowed to execute at
	// once. Must be at least 1.
	Concurrency int `toml:"concurrency"`

	// RateLimit caps dispatches per second. Zero disables pacing.
	RateLimit float64 `toml:"rate_limit"`

	// Burst is the limiter burst size when RateLimit is set.
	Burst int `toml:"burst"`

	// SuspendOnStart creates the queue suspended; callers resume it
	// once their setup is done.
	SuspendOnStart bool `toml:"suspend_on_start"`
}

// RetryConfig configures retry budgets and backoff pacing.
type RetryConfig struct {
	// MaxAttempts is the total number of executions a retryable
	// operation may consume, counting the first.
	MaxAttempts int `toml:"max_attempts"`

	// InitialBackoff is the pause before the first retry.
	InitialBackoff Duration `toml:"initial_backoff"`

	// MaxBackoff caps the growing pause between attempts.
	MaxBackoff Duration `toml:"max_backoff"`

	// Multiplier is the backoff growth factor. Values below 1 are
	// rejected by Validate.
	Multiplier float64 `toml:"multiplier"`
}

// ScheduleConfig configures the cron scheduler.
type ScheduleConfig struct {
	// Seconds enables the optional seconds field in cron expressions.
	Seconds bool `toml:"seconds"`
}

// Default returns a configuration with working defaults: a serial
// queue, three attempts with exponential backoff, no rate limit.
func Default() Config {
	return Config{
		Queue: QueueConfig{
			Concurrency: 1,
			Burst:       1,
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: Duration(500 * time.Millisecond),
			MaxBackoff:     Duration(30 * time.Second),
			Multiplier:     2.0,
		},
	}
}

// Load reads a TOML file on top of the defaults, so a file only needs
// the settings it changes.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration, naming the offending field.
func (c Config) Validate() error {
	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("queue.concurrency must be at least 1, got %d", c.Queue.Concurrency)
	}
	if c.Queue.RateLimit < 0 {
		return fmt.Errorf("queue.rate_limit must not be negative, got %g", c.Queue.RateLimit)
	}
	if c.Queue.RateLimit > 0 && c.Queue.Burst < 1 {
		return fmt.Errorf("queue.burst must be at least 1 when rate limiting, got %d", c.Queue.Burst)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.InitialBackoff < 0 {
		return fmt.Errorf("retry.initial_backoff must not be negative, got %s", c.Retry.InitialBackoff.Duration())
	}
	if c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		return fmt.Errorf("retry.max_backoff must not be below retry.initial_backoff, got %s", c.Retry.MaxBackoff.Duration())
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("retry.multiplier must be at least 1, got %g", c.Retry.Multiplier)
	}
	return nil
}

// BackOff builds an exponential backoff policy from the retry
// settings. Each call returns a fresh policy; policies are stateful
// and must not be shared between operations.
func (r RetryConfig) BackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialBackoff.Duration()
	b.MaxInterval = r.MaxBackoff.Duration()
	b.Multiplier = r.Multiplier
	b.MaxElapsedTime = 0
	return b
}
