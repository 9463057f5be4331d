package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds load windows, resolver cache expiry and the optional
// schedule interval.
type Config struct {
	WindowDays            int    `toml:"window_days"`
	FingerprintWindowDays int    `toml:"fingerprint_window_days"`
	CacheTTL              string `toml:"cache_ttl"`
	Schedule              string `toml:"schedule"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	WindowDays            string
	FingerprintWindowDays string
	CacheTTL              string
	Schedule              string
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c *Config) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// ScheduleInterval returns the scheduler interval, or zero when scheduling
// is disabled.
func (c *Config) ScheduleInterval() time.Duration {
	if c.Schedule == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Schedule)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.WindowDays != 0 {
		c.WindowDays = overlay.WindowDays
	}
	if overlay.FingerprintWindowDays != 0 {
		c.FingerprintWindowDays = overlay.FingerprintWindowDays
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
	if overlay.Schedule != "" {
		c.Schedule = overlay.Schedule
	}
}

func (c *Config) loadDefaults() {
	if c.WindowDays <= 0 {
		c.WindowDays = 90
	}
	if c.FingerprintWindowDays <= 0 {
		c.FingerprintWindowDays = 180
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "1h"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.WindowDays != "" {
		if v := os.Getenv(env.WindowDays); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.WindowDays = n
			}
		}
	}
	if env.FingerprintWindowDays != "" {
		if v := os.Getenv(env.FingerprintWindowDays); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.FingerprintWindowDays = n
			}
		}
	}
	if env.CacheTTL != "" {
		if v := os.Getenv(env.CacheTTL); v != "" {
			c.CacheTTL = v
		}
	}
	if env.Schedule != "" {
		if v := os.Getenv(env.Schedule); v != "" {
			c.Schedule = v
		}
	}
}

func (c *Config) validate() error {
	if c.WindowDays < 1 {
		return fmt.Errorf("window_days must be positive")
	}
	// fingerprints must cover the whole load window
	if c.FingerprintWindowDays < c.WindowDays {
		return fmt.Errorf("fingerprint_window_days (%d) must be at least window_days (%d)",
			c.FingerprintWindowDays, c.WindowDays)
	}
	if d, err := time.ParseDuration(c.CacheTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid cache_ttl: %q", c.CacheTTL)
	}
	if c.Schedule != "" {
		if d, err := time.ParseDuration(c.Schedule); err != nil || d <= 0 {
			return fmt.Errorf("invalid schedule: %q", c.Schedule)
		}
	}
	return nil
}
