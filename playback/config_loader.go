package playback

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads the playback configuration from Viper, falling
// back to defaults for unset keys, and validates the result. The user-facing
// settings live at the top level of the config file; the tuning knobs live
// under the playback section.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("engine") {
		cfg.Engine = viper.GetString("engine")
	}
	if viper.IsSet("voice") {
		cfg.VoiceID = viper.GetString("voice")
	}
	if viper.IsSet("rate") {
		cfg.Rate = viper.GetFloat64("rate")
	}
	if viper.IsSet("repeat") {
		cfg.Repeat = viper.GetString("repeat")
	}
	if viper.IsSet("playback.min_tail_chars") {
		cfg.MinTailChars = viper.GetInt("playback.min_tail_chars")
	}
	if viper.IsSet("playback.tail_start_fraction") {
		cfg.TailStartFraction = viper.GetFloat64("playback.tail_start_fraction")
	}
	if viper.IsSet("playback.chars_per_second") {
		cfg.CharsPerSecond = viper.GetFloat64("playback.chars_per_second")
	}

	for key, dst := range map[string]*time.Duration{
		"playback.watchdog_timeout": &cfg.WatchdogTimeout,
		"playback.save_interval":    &cfg.SaveInterval,
		"playback.tick_interval":    &cfg.TickInterval,
		"playback.skip_interval":    &cfg.SkipInterval,
	} {
		if viper.IsSet(key) {
			if d, err := time.ParseDuration(viper.GetString(key)); err == nil {
				*dst = d
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid playback configuration: %w", err)
	}

	return cfg, nil
}

// SetDefaults registers the playback defaults in Viper so a generated config
// file reflects them.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("engine", defaults.Engine)
	viper.SetDefault("voice", defaults.VoiceID)
	viper.SetDefault("rate", defaults.Rate)
	viper.SetDefault("repeat", defaults.Repeat)
	viper.SetDefault("playback.min_tail_chars", defaults.MinTailChars)
	viper.SetDefault("playback.tail_start_fraction", defaults.TailStartFraction)
	viper.SetDefault("playback.watchdog_timeout", defaults.WatchdogTimeout.String())
	viper.SetDefault("playback.save_interval", defaults.SaveInterval.String())
	viper.SetDefault("playback.tick_interval", defaults.TickInterval.String())
	viper.SetDefault("playback.skip_interval", defaults.SkipInterval.String())
	viper.SetDefault("playback.chars_per_second", defaults.CharsPerSecond)
}
