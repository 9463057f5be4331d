package pipeline_test

import (
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/costmap/internal/pipeline"
)

func TestConfigDefaults(t *testing.T) {
	var cfg pipeline.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.WindowDays != 90 || cfg.FingerprintWindowDays != 180 {
		t.Errorf("windows = %d/%d, want 90/180", cfg.WindowDays, cfg.FingerprintWindowDays)
	}
	if cfg.CacheTTLDuration() != time.Hour {
		t.Errorf("cache ttl = %v, want 1h", cfg.CacheTTLDuration())
	}
	if cfg.ScheduleInterval() != 0 {
		t.Errorf("schedule = %v, want disabled", cfg.ScheduleInterval())
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("TEST_PIPELINE_WINDOW", "30")
	t.Setenv("TEST_PIPELINE_SCHEDULE", "15m")

	cfg := pipeline.Config{}
	err := cfg.Finalize(&pipeline.Env{
		WindowDays: "TEST_PIPELINE_WINDOW",
		Schedule:   "TEST_PIPELINE_SCHEDULE",
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.WindowDays != 30 {
		t.Errorf("window_days = %d, want 30", cfg.WindowDays)
	}
	if cfg.ScheduleInterval() != 15*time.Minute {
		t.Errorf("schedule = %v, want 15m", cfg.ScheduleInterval())
	}
}

func TestConfigMerge(t *testing.T) {
	base := pipeline.Config{WindowDays: 90, CacheTTL: "1h"}
	base.Merge(&pipeline.Config{Schedule: "1h", CacheTTL: "10m"})

	if base.WindowDays != 90 || base.Schedule != "1h" || base.CacheTTL != "10m" {
		t.Errorf("merged = %+v", base)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     pipeline.Config
		wantErr string
	}{
		{"fingerprint window narrower", pipeline.Config{WindowDays: 90, FingerprintWindowDays: 60}, "fingerprint_window_days"},
		{"bad ttl", pipeline.Config{CacheTTL: "forever"}, "cache_ttl"},
		{"negative ttl", pipeline.Config{CacheTTL: "-1m"}, "cache_ttl"},
		{"bad schedule", pipeline.Config{Schedule: "hourly"}, "schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
