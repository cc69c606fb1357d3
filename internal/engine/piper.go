package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lectern-tts/lectern/internal/audio"
)

const (
	piperMaxTextChars = 5000
	piperTimeout      = 30 * time.Second
)

// PiperSynthesizer runs the piper binary once per segment with the text on
// stdin and raw PCM on stdout. A fresh process per call avoids sharing a
// long-lived piper's stdin across utterances.
type PiperSynthesizer struct {
	binary     string
	modelPath  string
	configPath string
	format     audio.Format
}

// PiperOptions configures the piper backend.
type PiperOptions struct {
	// Binary is the piper executable; defaults to "piper" on PATH.
	Binary string

	// ModelPath is the .onnx voice model, required.
	ModelPath string

	// ConfigPath is the model's JSON sidecar; defaults to ModelPath with a
	// .json extension.
	ConfigPath string

	// SampleRate must match the model; defaults to 22050.
	SampleRate int
}

// NewPiperSynthesizer validates the model files and locates the binary.
func NewPiperSynthesizer(opts PiperOptions) (*PiperSynthesizer, error) {
	if opts.ModelPath == "" {
		return nil, fmt.Errorf("%w: piper model path not configured", ErrBackendUnavailable)
	}
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: model %s: %v", ErrBackendUnavailable, opts.ModelPath, err)
	}

	binary := opts.Binary
	if binary == "" {
		binary = "piper"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = strings.TrimSuffix(opts.ModelPath, filepath.Ext(opts.ModelPath)) + ".json"
	}

	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 22050
	}

	return &PiperSynthesizer{
		binary:     binary,
		modelPath:  opts.ModelPath,
		configPath: configPath,
		format:     audio.Format{SampleRate: sampleRate, Channels: 1},
	}, nil
}

func (p *PiperSynthesizer) Synthesize(ctx context.Context, text, voiceID string, rate float64) ([]byte, error) {
	if len(text) > piperMaxTextChars {
		return nil, fmt.Errorf("%w: segment of %d chars exceeds %d", ErrSynthesisFailed, len(text), piperMaxTextChars)
	}

	ctx, cancel := context.WithTimeout(ctx, piperTimeout)
	defer cancel()

	args := []string{
		"--model", p.modelPath,
		"--config", p.configPath,
		"--output-raw",
		// Piper scales utterance length, so rate 2.0 means scale 0.5.
		"--length-scale", fmt.Sprintf("%.3f", 1.0/rate),
	}
	if voiceID != "" {
		args = append(args, "--speaker", voiceID)
	}

	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: piper timed out after %v", ErrSynthesisFailed, piperTimeout)
		}
		return nil, fmt.Errorf("%w: piper: %v: %s", ErrSynthesisFailed, err, strings.TrimSpace(stderr.String()))
	}

	pcm := stdout.Bytes()
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%w: piper produced no audio", ErrSynthesisFailed)
	}
	return pcm, nil
}

func (p *PiperSynthesizer) Format() audio.Format { return p.format }

func (p *PiperSynthesizer) Close() error { return nil }
