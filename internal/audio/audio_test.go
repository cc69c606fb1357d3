package audio

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		bytes  int
		want   time.Duration
	}{
		{"one second mono 22k", Format{22050, 1}, 44100, time.Second},
		{"one second stereo 44k", Format{44100, 2}, 176400, time.Second},
		{"half second mono 22k", Format{22050, 1}, 22050, 500 * time.Millisecond},
		{"empty buffer", Format{22050, 1}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.Duration(tt.bytes); got != tt.want {
				t.Errorf("Duration(%d) = %v, want %v", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatByteLenRoundTrip(t *testing.T) {
	f := DefaultFormat
	n := f.ByteLen(time.Second)
	if got := f.Duration(n); got != time.Second {
		t.Errorf("Duration(ByteLen(1s)) = %v, want 1s", got)
	}
}

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"default", DefaultFormat, false},
		{"stereo 48k", Format{48000, 2}, false},
		{"zero sample rate", Format{0, 1}, true},
		{"three channels", Format{44100, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMockPlayerCompletes(t *testing.T) {
	m := NewMockPlayer()
	pcm := make([]byte, m.Format.ByteLen(time.Second)) // ~10ms simulated

	done, err := m.Play(pcm)
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("playback never completed")
	}
}

func TestMockPlayerStopSuppressesDone(t *testing.T) {
	m := NewMockPlayer()
	m.TimeScale = 1.0 // real time so the stop lands first
	pcm := make([]byte, m.Format.ByteLen(10*time.Second))

	done, err := m.Play(pcm)
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	select {
	case <-done:
		t.Fatal("done closed after stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMockPlayerPauseHoldsPosition(t *testing.T) {
	m := NewMockPlayer()
	m.TimeScale = 1.0
	pcm := make([]byte, m.Format.ByteLen(10*time.Second))

	if _, err := m.Play(pcm); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if err := m.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	p1 := m.Position()
	time.Sleep(30 * time.Millisecond)
	p2 := m.Position()
	if p1 != p2 {
		t.Errorf("position advanced while paused: %v then %v", p1, p2)
	}
	if p1 == 0 {
		t.Error("position is zero after playback time elapsed")
	}

	if err := m.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if m.Position() <= p2 {
		t.Error("position did not advance after resume")
	}
}

func TestMockPlayerPlayReplacesCurrent(t *testing.T) {
	m := NewMockPlayer()
	m.TimeScale = 1.0
	pcm := make([]byte, m.Format.ByteLen(10*time.Second))

	first, err := m.Play(pcm)
	if err != nil {
		t.Fatalf("first Play() error = %v", err)
	}
	second, err := m.Play(pcm)
	if err != nil {
		t.Fatalf("second Play() error = %v", err)
	}
	if first == second {
		t.Fatal("expected a fresh done channel per play")
	}

	select {
	case <-first:
		t.Fatal("replaced playback's done channel closed")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMockPlayerClosed(t *testing.T) {
	m := NewMockPlayer()
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := m.Play([]byte{0, 0}); err != ErrPlayerClosed {
		t.Errorf("Play() after close error = %v, want ErrPlayerClosed", err)
	}
}
