package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lectern-tts/lectern/internal/audio"
)

// MockSynthesizer renders silence sized to the text, so the full pipeline
// runs with believable timing but no external binary and no sound. It is
// the default backend and what the tests use.
type MockSynthesizer struct {
	// CharsPerSecond sets the simulated speech density at rate 1.0.
	CharsPerSecond float64

	format audio.Format
}

// NewMockSynthesizer returns a mock speaking at roughly 14 characters per
// second, matching the playback package's duration estimates.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{CharsPerSecond: 14, format: audio.DefaultFormat}
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text, voiceID string, rate float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, fmt.Errorf("%w: rate %.2f", ErrSynthesisFailed, rate)
	}

	seconds := float64(len(text)) / (m.CharsPerSecond * rate)
	n := m.format.ByteLen(durationOf(seconds))
	if n < 2 {
		n = 2
	}
	return make([]byte, n), nil
}

func (m *MockSynthesizer) Format() audio.Format { return m.format }

func (m *MockSynthesizer) Close() error { return nil }

func durationOf(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
