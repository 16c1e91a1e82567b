package worker

import "time"

// Config controls the export worker loop.
type Config struct {
	BatchSize    int
	PollInterval time.Duration
	RunTimeout   time.Duration
	// ProcessingTimeout is how long a job may sit in processing before
	// the reaper fails it.
	ProcessingTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchSize:         10,
		PollInterval:      2 * time.Second,
		RunTimeout:        60 * time.Second,
		ProcessingTimeout: 5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	if c.ProcessingTimeout <= 0 {
		c.ProcessingTimeout = defaults.ProcessingTimeout
	}
	return c
}
