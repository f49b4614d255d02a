package cutoutsched

import (
	"os"
	"strconv"
	"time"
)

// Default values mirror the long-standing daemon defaults.
const (
	DefaultDelay               = 30 * time.Second
	DefaultMaxLoops            = 500
	DefaultConcurrencyLimit    = 12
	DefaultMinConcurrencyLimit = 6
)

// Config represents scheduler configuration. Zero values are replaced with
// the defaults above when the scheduler is created.
type Config struct {
	// Delay is the pause between scans for completed jobs.
	Delay time.Duration

	// MaxLoops is the maximum number of scheduling loops before the run is
	// declared exhausted.
	MaxLoops int

	// ConcurrencyLimit is the hard ceiling on simultaneously active jobs.
	ConcurrencyLimit int

	// MinConcurrencyLimit is the floor below which beam conflicts are
	// tolerated so the queue cannot stall waiting for a beam to free.
	MinConcurrencyLimit int

	// SBID is the scheduling block id shared by every job of the run.
	SBID int

	// PreActive lists job ids assumed already running from a previous
	// invocation. They are registered as active without a conflict check
	// and without being launched again.
	PreActive []int
}

// LoadConfig loads scheduler configuration from environment variables.
// It reads the following environment variables:
//   - CUTOUT_DELAY: pause between scans (default: 30s)
//   - CUTOUT_MAX_LOOPS: loop budget (default: 500)
//   - CUTOUT_CONCURRENCY_LIMIT: hard concurrency ceiling (default: 12)
//   - CUTOUT_MIN_CONCURRENCY_LIMIT: conflict-tolerance floor (default: 6)
//   - CUTOUT_SBID: scheduling block id (default: 0)
//
// CUTOUT_DELAY accepts either an integer number of seconds (e.g. "30") or a
// duration string (e.g. "1m30s").
func LoadConfig() *Config {
	return &Config{
		Delay:               getEnvDuration("CUTOUT_DELAY", DefaultDelay),
		MaxLoops:            getEnvInt("CUTOUT_MAX_LOOPS", DefaultMaxLoops),
		ConcurrencyLimit:    getEnvInt("CUTOUT_CONCURRENCY_LIMIT", DefaultConcurrencyLimit),
		MinConcurrencyLimit: getEnvInt("CUTOUT_MIN_CONCURRENCY_LIMIT", DefaultMinConcurrencyLimit),
		SBID:                getEnvInt("CUTOUT_SBID", 0),
	}
}

// withDefaults fills zero values with the package defaults.
func (c Config) withDefaults() Config {
	if c.Delay <= 0 {
		c.Delay = DefaultDelay
	}
	if c.MaxLoops <= 0 {
		c.MaxLoops = DefaultMaxLoops
	}
	if c.ConcurrencyLimit <= 0 {
		c.ConcurrencyLimit = DefaultConcurrencyLimit
	}
	if c.MinConcurrencyLimit < 0 {
		c.MinConcurrencyLimit = DefaultMinConcurrencyLimit
	}
	return c
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
