package playback

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown engine",
			mutate:  func(c *Config) { c.Engine = "espeak" },
			wantErr: true,
		},
		{
			name:    "unknown repeat mode",
			mutate:  func(c *Config) { c.Repeat = "shuffle" },
			wantErr: true,
		},
		{
			name:   "repeat alias single",
			mutate: func(c *Config) { c.Repeat = "single" },
		},
		{
			name:    "rate too low",
			mutate:  func(c *Config) { c.Rate = 0.25 },
			wantErr: true,
		},
		{
			name:    "rate too high",
			mutate:  func(c *Config) { c.Rate = 3.0 },
			wantErr: true,
		},
		{
			name:   "rate at bounds",
			mutate: func(c *Config) { c.Rate = 2.0 },
		},
		{
			name:    "negative tail chars",
			mutate:  func(c *Config) { c.MinTailChars = -1 },
			wantErr: true,
		},
		{
			name:    "tail fraction above one",
			mutate:  func(c *Config) { c.TailStartFraction = 1.5 },
			wantErr: true,
		},
		{
			name:    "watchdog too short",
			mutate:  func(c *Config) { c.WatchdogTimeout = 50 * time.Millisecond },
			wantErr: true,
		},
		{
			name: "save shorter than tick",
			mutate: func(c *Config) {
				c.TickInterval = time.Second
				c.SaveInterval = 500 * time.Millisecond
			},
			wantErr: true,
		},
		{
			name:    "zero chars per second",
			mutate:  func(c *Config) { c.CharsPerSecond = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSkipChars(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CharsPerSecond = 10

	tests := []struct {
		name string
		d    time.Duration
		rate float64
		want int
	}{
		{"forward at normal rate", 15 * time.Second, 1.0, 150},
		{"backward at normal rate", -15 * time.Second, 1.0, -150},
		{"forward at double rate", 10 * time.Second, 2.0, 200},
		{"zero duration", 0, 1.0, 0},
		{"invalid rate falls back to 1.0", 10 * time.Second, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.SkipChars(tt.d, tt.rate); got != tt.want {
				t.Errorf("SkipChars(%v, %v) = %d, want %d", tt.d, tt.rate, got, tt.want)
			}
		})
	}
}
