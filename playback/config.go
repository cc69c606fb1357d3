package playback

import (
	"fmt"
	"time"
)

// Config contains the coordinator's tunable parameters. The tail-suppression
// thresholds and watchdog timeout are deliberately configuration, not
// constants: they exist to work around engine quirks and are expected to be
// tuned per engine.
type Config struct {
	// Engine selects the synthesis backend: mock, piper, or gtts.
	Engine string `yaml:"engine" env:"LECTERN_ENGINE" envDefault:"mock"`

	// VoiceID selects the synthesis voice, engine-specific.
	VoiceID string `yaml:"voice" env:"LECTERN_VOICE"`

	// Rate is the speech rate multiplier (0.5 to 2.0).
	Rate float64 `yaml:"rate" env:"LECTERN_RATE" envDefault:"1.0"`

	// Repeat is the completion behavior: off, one, or all.
	Repeat string `yaml:"repeat" env:"LECTERN_REPEAT" envDefault:"off"`

	// MinTailChars is the minimum utterance length below which natural
	// completion is handled with tail suppression.
	MinTailChars int `yaml:"min_tail_chars" env:"LECTERN_MIN_TAIL_CHARS" envDefault:"50"`

	// TailStartFraction marks the position past which an utterance start
	// counts as a tail (0.90 = last 10% of the text).
	TailStartFraction float64 `yaml:"tail_start_fraction" env:"LECTERN_TAIL_START_FRACTION" envDefault:"0.9"`

	// WatchdogTimeout bounds how long the coordinator waits for the
	// engine's started event after a Speak before resetting to idle.
	WatchdogTimeout time.Duration `yaml:"watchdog_timeout" env:"LECTERN_WATCHDOG_TIMEOUT" envDefault:"5s"`

	// SaveInterval is the cadence of opportunistic progress persistence
	// during active playback. Pause and stop always persist immediately.
	SaveInterval time.Duration `yaml:"save_interval" env:"LECTERN_SAVE_INTERVAL" envDefault:"5s"`

	// TickInterval drives elapsed-time accounting and the save cadence.
	TickInterval time.Duration `yaml:"tick_interval" env:"LECTERN_TICK_INTERVAL" envDefault:"1s"`

	// SkipInterval is the transport-control skip step.
	SkipInterval time.Duration `yaml:"skip_interval" env:"LECTERN_SKIP_INTERVAL" envDefault:"15s"`

	// CharsPerSecond estimates speech density at rate 1.0, used to convert
	// time-based skips into character offsets.
	CharsPerSecond float64 `yaml:"chars_per_second" env:"LECTERN_CHARS_PER_SECOND" envDefault:"14"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:            "mock",
		Rate:              1.0,
		Repeat:            "off",
		MinTailChars:      50,
		TailStartFraction: 0.9,
		WatchdogTimeout:   5 * time.Second,
		SaveInterval:      5 * time.Second,
		TickInterval:      time.Second,
		SkipInterval:      15 * time.Second,
		CharsPerSecond:    14,
	}
}

// RepeatMode returns the parsed repeat setting.
func (c *Config) RepeatMode() RepeatMode {
	return ParseRepeatMode(c.Repeat)
}

// SkipChars converts a skip duration into a character delta at the given
// rate. Negative durations produce negative deltas.
func (c *Config) SkipChars(d time.Duration, rate float64) int {
	if rate <= 0 {
		rate = 1.0
	}
	return int(d.Seconds() * c.CharsPerSecond * rate)
}

// Validate checks the configuration ranges.
func (c *Config) Validate() error {
	switch c.Engine {
	case "mock", "piper", "gtts":
	default:
		return fmt.Errorf("invalid engine %q: must be one of [mock piper gtts]", c.Engine)
	}

	switch c.Repeat {
	case "off", "one", "single", "all", "list":
	default:
		return fmt.Errorf("invalid repeat mode %q: must be one of [off one all]", c.Repeat)
	}

	if c.Rate < 0.5 || c.Rate > 2.0 {
		return fmt.Errorf("rate must be between 0.5 and 2.0, got %.2f", c.Rate)
	}

	if c.MinTailChars < 0 || c.MinTailChars > 10000 {
		return fmt.Errorf("min_tail_chars must be between 0 and 10000, got %d", c.MinTailChars)
	}

	if c.TailStartFraction < 0 || c.TailStartFraction > 1 {
		return fmt.Errorf("tail_start_fraction must be between 0.0 and 1.0, got %.2f", c.TailStartFraction)
	}

	if c.WatchdogTimeout < 100*time.Millisecond {
		return fmt.Errorf("watchdog_timeout must be at least 100ms, got %v", c.WatchdogTimeout)
	}

	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval)
	}

	if c.SaveInterval < c.TickInterval {
		return fmt.Errorf("save_interval %v cannot be shorter than tick_interval %v", c.SaveInterval, c.TickInterval)
	}

	if c.CharsPerSecond <= 0 {
		return fmt.Errorf("chars_per_second must be positive, got %.2f", c.CharsPerSecond)
	}

	return nil
}
