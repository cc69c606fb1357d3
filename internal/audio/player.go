package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player plays one PCM buffer at a time. Play replaces any buffer still
// playing; the returned channel closes when the buffer has been played to
// the end, and stays open if playback is stopped or replaced first.
type Player interface {
	Play(pcm []byte) (done <-chan struct{}, err error)
	Pause() error
	Resume() error
	Stop() error
	Position() time.Duration
	Close() error
}

// ErrPlayerClosed is returned by operations on a closed player.
var ErrPlayerClosed = errors.New("audio: player closed")

// OtoPlayer is the oto-backed Player. The oto context is created once; oto
// allows only one per process.
type OtoPlayer struct {
	ctx    *oto.Context
	format Format

	mu     sync.Mutex
	player *oto.Player
	// pcm pins the buffer for the lifetime of the oto player; oto reads it
	// incrementally from the reader.
	pcm      []byte
	done     chan struct{}
	watchGen int
	started  time.Time
	pausedAt time.Duration
	paused   bool
	closed   bool
}

// NewOtoPlayer opens the audio device for the given format and blocks until
// the context is ready.
func NewOtoPlayer(format Format) (*OtoPlayer, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("audio: opening device: %w", err)
	}
	<-ready

	return &OtoPlayer{ctx: ctx, format: format}, nil
}

// Play starts the buffer, replacing any current playback.
func (p *OtoPlayer) Play(pcm []byte) (<-chan struct{}, error) {
	if len(pcm) == 0 {
		return nil, errors.New("audio: empty buffer")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPlayerClosed
	}

	p.stopLocked()

	p.pcm = append([]byte(nil), pcm...)
	p.player = p.ctx.NewPlayer(bytes.NewReader(p.pcm))
	p.done = make(chan struct{})
	p.started = time.Now()
	p.pausedAt = 0
	p.paused = false
	p.watchGen++

	p.player.Play()
	go p.watch(p.player, p.done, p.watchGen)

	return p.done, nil
}

// watch closes done once the oto player drains. A stop or replacement bumps
// watchGen, turning this watcher into a no-op.
func (p *OtoPlayer) watch(player *oto.Player, done chan struct{}, gen int) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()
		if p.watchGen != gen {
			p.mu.Unlock()
			return
		}
		if p.paused {
			p.mu.Unlock()
			continue
		}
		if !player.IsPlaying() && player.BufferedSize() == 0 {
			p.player = nil
			p.pcm = nil
			p.mu.Unlock()
			_ = player.Close()
			close(done)
			return
		}
		p.mu.Unlock()
	}
}

// Pause suspends playback, holding the position.
func (p *OtoPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerClosed
	}
	if p.player == nil || p.paused {
		return nil
	}
	p.pausedAt = time.Since(p.started)
	p.paused = true
	p.player.Pause()
	return nil
}

// Resume continues paused playback.
func (p *OtoPlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerClosed
	}
	if p.player == nil || !p.paused {
		return nil
	}
	p.started = time.Now().Add(-p.pausedAt)
	p.paused = false
	p.player.Play()
	return nil
}

// Stop discards the current buffer. The done channel for it never closes.
func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerClosed
	}
	p.stopLocked()
	return nil
}

func (p *OtoPlayer) stopLocked() {
	p.watchGen++
	if p.player != nil {
		p.player.Pause()
		_ = p.player.Close()
		p.player = nil
	}
	p.pcm = nil
	p.done = nil
	p.paused = false
	p.pausedAt = 0
}

// Position returns how far into the current buffer playback is.
func (p *OtoPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return 0
	}
	if p.paused {
		return p.pausedAt
	}
	pos := time.Since(p.started)
	if max := p.format.Duration(len(p.pcm)); pos > max {
		pos = max
	}
	return pos
}

// Close stops playback and releases the device. The oto context itself has
// no close; it is dropped for GC.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.stopLocked()
	p.closed = true
	p.ctx = nil
	return nil
}
