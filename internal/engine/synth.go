// Package engine turns text into audible speech. A Synthesizer produces PCM
// for one segment of text; the Adapter wraps a synthesizer, the clip cache,
// and the audio player into the event-driven engine the playback package
// drives.
package engine

import (
	"context"
	"errors"

	"github.com/lectern-tts/lectern/internal/audio"
)

var (
	// ErrSynthesisFailed wraps backend failures producing audio.
	ErrSynthesisFailed = errors.New("synthesis failed")

	// ErrBackendUnavailable is returned when a backend's external binary or
	// service cannot be reached.
	ErrBackendUnavailable = errors.New("synthesis backend unavailable")
)

// Synthesizer produces PCM audio for a text segment. Implementations must
// be safe for sequential reuse; the adapter serializes calls.
type Synthesizer interface {
	// Synthesize renders the text at the given rate. The voice is the
	// backend-specific voice or model identifier; empty selects the
	// backend's default.
	Synthesize(ctx context.Context, text, voiceID string, rate float64) ([]byte, error)

	// Format reports the PCM layout Synthesize produces.
	Format() audio.Format

	Close() error
}
