package audio

import (
	"errors"
	"sync"
	"time"
)

// MockPlayer simulates playback on a wall clock without touching an audio
// device. A TimeScale below 1.0 makes simulated playback faster than real
// time, which keeps tests quick.
type MockPlayer struct {
	Format    Format
	TimeScale float64

	mu       sync.Mutex
	duration time.Duration
	done     chan struct{}
	cancel   chan struct{}
	started  time.Time
	pausedAt time.Duration
	paused   bool
	closed   bool

	plays   int
	pauses  int
	resumes int
	stops   int
}

// NewMockPlayer returns a mock playing at 1/100 real time.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{Format: DefaultFormat, TimeScale: 0.01}
}

func (m *MockPlayer) Play(pcm []byte) (<-chan struct{}, error) {
	if len(pcm) == 0 {
		return nil, errors.New("audio: empty buffer")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrPlayerClosed
	}

	m.stopLocked()
	m.plays++

	m.duration = time.Duration(float64(m.Format.Duration(len(pcm))) * m.TimeScale)
	m.done = make(chan struct{})
	m.cancel = make(chan struct{})
	m.started = time.Now()
	m.pausedAt = 0
	m.paused = false

	go m.run(m.done, m.cancel, m.duration)
	return m.done, nil
}

func (m *MockPlayer) run(done chan struct{}, cancel chan struct{}, remaining time.Duration) {
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		close(done)
	case <-cancel:
	}
}

func (m *MockPlayer) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrPlayerClosed
	}
	if m.done == nil || m.paused {
		return nil
	}
	m.pauses++
	m.pausedAt = time.Since(m.started)
	m.paused = true
	close(m.cancel)
	return nil
}

func (m *MockPlayer) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrPlayerClosed
	}
	if m.done == nil || !m.paused {
		return nil
	}
	m.resumes++
	m.started = time.Now().Add(-m.pausedAt)
	m.paused = false
	m.cancel = make(chan struct{})
	go m.run(m.done, m.cancel, m.duration-m.pausedAt)
	return nil
}

func (m *MockPlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrPlayerClosed
	}
	m.stopLocked()
	return nil
}

func (m *MockPlayer) stopLocked() {
	if m.done != nil {
		m.stops++
		if !m.paused {
			close(m.cancel)
		}
		m.done = nil
		m.cancel = nil
	}
	m.paused = false
	m.pausedAt = 0
}

func (m *MockPlayer) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done == nil {
		return 0
	}
	if m.paused {
		return m.pausedAt
	}
	pos := time.Since(m.started)
	if pos > m.duration {
		pos = m.duration
	}
	return pos
}

func (m *MockPlayer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	m.closed = true
	return nil
}

// Counts returns how many play, pause, resume, and stop calls the mock has
// seen.
func (m *MockPlayer) Counts() (plays, pauses, resumes, stops int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays, m.pauses, m.resumes, m.stops
}

var _ Player = (*MockPlayer)(nil)
