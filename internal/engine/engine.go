package engine

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"

	"github.com/lectern-tts/lectern/internal/audio"
	"github.com/lectern-tts/lectern/internal/cache"
	"github.com/lectern-tts/lectern/playback"
)

// Config selects and tunes the synthesis backend. Values come from the
// config file with LECTERN_* environment overrides.
type Config struct {
	Backend string `yaml:"backend" env:"LECTERN_ENGINE" envDefault:"mock"`

	PiperBinary string `yaml:"piper_binary" env:"LECTERN_PIPER_BINARY"`
	PiperModel  string `yaml:"piper_model" env:"LECTERN_PIPER_MODEL"`
	PiperConfig string `yaml:"piper_config" env:"LECTERN_PIPER_CONFIG"`

	GTTSLanguage string `yaml:"gtts_language" env:"LECTERN_GTTS_LANGUAGE" envDefault:"en"`
	GTTSRPM      int    `yaml:"gtts_rpm" env:"LECTERN_GTTS_RPM" envDefault:"30"`

	CacheDir       string `yaml:"cache_dir" env:"LECTERN_CACHE_DIR"`
	MemCacheBytes  int64  `yaml:"mem_cache_bytes" env:"LECTERN_MEM_CACHE_BYTES" envDefault:"33554432"`
	DiskCacheBytes int64  `yaml:"disk_cache_bytes" env:"LECTERN_DISK_CACHE_BYTES" envDefault:"268435456"`

	// Mute swaps the real audio device for the simulated player. The mock
	// backend always implies Mute.
	Mute bool `yaml:"mute" env:"LECTERN_MUTE"`
}

// ConfigFromEnv builds a Config from environment variables alone.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("engine: parsing environment: %w", err)
	}
	return cfg, nil
}

// New builds the full synthesis pipeline for the configured backend and
// returns it as a playback engine.
func New(cfg Config, logger *log.Logger) (playback.Engine, error) {
	synth, err := newSynthesizer(cfg)
	if err != nil {
		return nil, err
	}

	var player audio.Player
	if cfg.Mute || cfg.Backend == "mock" {
		mock := audio.NewMockPlayer()
		mock.Format = synth.Format()
		player = mock
	} else {
		player, err = audio.NewOtoPlayer(synth.Format())
		if err != nil {
			_ = synth.Close()
			return nil, err
		}
	}

	clips, err := newClipCache(cfg, logger)
	if err != nil {
		_ = synth.Close()
		_ = player.Close()
		return nil, err
	}

	return NewAdapter(AdapterOptions{
		Synth:  synth,
		Player: player,
		Clips:  clips,
		Logger: logger,
	})
}

func newSynthesizer(cfg Config) (Synthesizer, error) {
	switch cfg.Backend {
	case "", "mock":
		return NewMockSynthesizer(), nil
	case "piper":
		return NewPiperSynthesizer(PiperOptions{
			Binary:     cfg.PiperBinary,
			ModelPath:  cfg.PiperModel,
			ConfigPath: cfg.PiperConfig,
		})
	case "gtts":
		return NewGTTSSynthesizer(GTTSOptions{
			Language:          cfg.GTTSLanguage,
			RequestsPerMinute: cfg.GTTSRPM,
		})
	default:
		return nil, fmt.Errorf("unknown synthesis backend %q", cfg.Backend)
	}
}

// newClipCache builds the tiered clip cache. The mock backend skips the
// disk tier; its silence is cheaper to regenerate than to read back.
func newClipCache(cfg Config, logger *log.Logger) (cache.Store, error) {
	if cfg.MemCacheBytes <= 0 {
		return nil, nil
	}

	memory := cache.NewMemory(cfg.MemCacheBytes)
	if cfg.Backend == "mock" || cfg.CacheDir == "" || cfg.DiskCacheBytes <= 0 {
		return cache.NewTiered(memory, nil), nil
	}

	disk, err := cache.NewDisk(cfg.CacheDir, cfg.DiskCacheBytes)
	if err != nil {
		logger.Warn("disk cache unavailable, continuing memory-only", "dir", cfg.CacheDir, "err", err)
		return cache.NewTiered(memory, nil), nil
	}
	return cache.NewTiered(memory, disk), nil
}
