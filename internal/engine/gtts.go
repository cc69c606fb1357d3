package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lectern-tts/lectern/internal/audio"
)

const (
	gttsTimeout    = 30 * time.Second
	gttsMaxMP3Size = 10 << 20
)

// GTTSSynthesizer shells out to gtts-cli for MP3 synthesis and ffmpeg for
// PCM conversion. Requests are rate limited because gtts-cli talks to a
// public endpoint that throttles aggressive clients.
type GTTSSynthesizer struct {
	language string
	tempDir  string
	limiter  *rate.Limiter
	format   audio.Format
}

// GTTSOptions configures the gtts backend.
type GTTSOptions struct {
	// Language is the BCP-47 code passed to gtts-cli; defaults to "en".
	Language string

	// RequestsPerMinute caps synthesis calls; defaults to 30.
	RequestsPerMinute int
}

// NewGTTSSynthesizer checks for the required binaries.
func NewGTTSSynthesizer(opts GTTSOptions) (*GTTSSynthesizer, error) {
	for _, bin := range []string{"gtts-cli", "ffmpeg"} {
		if _, err := exec.LookPath(bin); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}

	language := opts.Language
	if language == "" {
		language = "en"
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}

	return &GTTSSynthesizer{
		language: language,
		tempDir:  os.TempDir(),
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		format:   audio.Format{SampleRate: 22050, Channels: 1},
	}, nil
}

func (g *GTTSSynthesizer) Synthesize(ctx context.Context, text, voiceID string, rateMul float64) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %v", ErrSynthesisFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, gttsTimeout)
	defer cancel()

	mp3, err := g.synthesizeMP3(ctx, text, voiceID)
	if err != nil {
		return nil, err
	}
	return g.mp3ToPCM(ctx, mp3, rateMul)
}

func (g *GTTSSynthesizer) synthesizeMP3(ctx context.Context, text, voiceID string) ([]byte, error) {
	language := g.language
	if voiceID != "" {
		language = voiceID
	}

	cmd := exec.CommandContext(ctx, "gtts-cli", "--lang", language, "--output", "-", "-")
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: gtts-cli: %v: %s", ErrSynthesisFailed, err, strings.TrimSpace(stderr.String()))
	}

	mp3 := stdout.Bytes()
	if len(mp3) == 0 {
		return nil, fmt.Errorf("%w: gtts-cli produced no audio", ErrSynthesisFailed)
	}
	if len(mp3) > gttsMaxMP3Size {
		return nil, fmt.Errorf("%w: gtts-cli output of %d bytes exceeds limit", ErrSynthesisFailed, len(mp3))
	}
	return mp3, nil
}

// mp3ToPCM converts with ffmpeg, applying the rate via the atempo filter
// since gtts has no native speed control.
func (g *GTTSSynthesizer) mp3ToPCM(ctx context.Context, mp3 []byte, rateMul float64) ([]byte, error) {
	tmp, err := os.CreateTemp(g.tempDir, "lectern-gtts-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("%w: temp file: %v", ErrSynthesisFailed, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(mp3); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: writing temp mp3: %v", ErrSynthesisFailed, err)
	}
	tmp.Close()

	args := []string{
		"-i", tmp.Name(),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(g.format.SampleRate),
		"-ac", strconv.Itoa(g.format.Channels),
	}
	if rateMul != 1.0 {
		args = append(args, "-filter:a", fmt.Sprintf("atempo=%.3f", rateMul))
	}
	args = append(args, "-")

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %v: %s", ErrSynthesisFailed, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no audio", ErrSynthesisFailed)
	}
	return stdout.Bytes(), nil
}

func (g *GTTSSynthesizer) Format() audio.Format { return g.format }

func (g *GTTSSynthesizer) Close() error { return nil }
