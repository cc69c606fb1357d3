// Package audio provides PCM playback for synthesized speech. The real
// player sits on an oto context; the mock advances a clock so tests can run
// without an audio device.
package audio

import (
	"fmt"
	"time"
)

// Format describes the PCM layout a synthesizer produces. Samples are
// signed 16-bit little endian.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat is mono 22.05kHz, the piper default.
var DefaultFormat = Format{SampleRate: 22050, Channels: 1}

const bytesPerSample = 2

// Validate checks the format against what the audio backend supports.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", f.Channels)
	}
	return nil
}

// Duration returns the playback time of a PCM buffer in this format.
func (f Format) Duration(n int) time.Duration {
	samples := n / (f.Channels * bytesPerSample)
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}

// ByteLen returns the PCM buffer size for a playback duration, rounded down
// to a whole sample.
func (f Format) ByteLen(d time.Duration) int {
	samples := int(d.Seconds() * float64(f.SampleRate))
	return samples * f.Channels * bytesPerSample
}
