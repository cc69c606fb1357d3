package cache

import (
	"bytes"
	"errors"
	"testing"
)

func TestKeyDistinguishesInputs(t *testing.T) {
	base := Key("hello world", "en_US-amy", 1.0)

	tests := []struct {
		name  string
		text  string
		voice string
		rate  float64
	}{
		{"different text", "hello there", "en_US-amy", 1.0},
		{"different voice", "hello world", "en_GB-alan", 1.0},
		{"different rate", "hello world", "en_US-amy", 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.text, tt.voice, tt.rate); got == base {
				t.Error("key collision for distinct synthesis request")
			}
		})
	}

	if got := Key("hello world", "en_US-amy", 1.0); got != base {
		t.Error("key not stable for identical request")
	}
}

func TestMemoryLRUEviction(t *testing.T) {
	m := NewMemory(100)

	clip := func(n int, b byte) []byte { return bytes.Repeat([]byte{b}, n) }

	if err := m.Put("a", clip(40, 1)); err != nil {
		t.Fatalf("Put(a) error = %v", err)
	}
	if err := m.Put("b", clip(40, 2)); err != nil {
		t.Fatalf("Put(b) error = %v", err)
	}

	// Touch a so b becomes the eviction candidate.
	if _, err := m.Get("a"); err != nil {
		t.Fatalf("Get(a) error = %v", err)
	}

	if err := m.Put("c", clip(40, 3)); err != nil {
		t.Fatalf("Put(c) error = %v", err)
	}

	if _, err := m.Get("b"); !errors.Is(err, ErrMiss) {
		t.Error("b should have been evicted as least recently used")
	}
	if _, err := m.Get("a"); err != nil {
		t.Error("a should have survived eviction")
	}
	if _, err := m.Get("c"); err != nil {
		t.Error("c should be present")
	}
}

func TestMemoryRejectsOversized(t *testing.T) {
	m := NewMemory(10)
	if err := m.Put("big", make([]byte, 11)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Put() error = %v, want ErrTooLarge", err)
	}
}

func TestMemoryStats(t *testing.T) {
	m := NewMemory(1000)
	_ = m.Put("a", make([]byte, 100))
	_, _ = m.Get("a")
	_, _ = m.Get("missing")

	s := m.Stats()
	if s.Items != 1 || s.Size != 100 {
		t.Errorf("Stats() = %d items %d bytes, want 1 item 100 bytes", s.Items, s.Size)
	}
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats() hits/misses = %d/%d, want 1/1", s.Hits, s.Misses)
	}
	if s.HitRate() != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", s.HitRate())
	}
}

func TestDiskRoundTrip(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("NewDisk() error = %v", err)
	}
	defer d.Close()

	clip := bytes.Repeat([]byte("pcm "), 1024)
	key := Key("some text", "voice", 1.0)

	if err := d.Put(key, clip); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := d.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, clip) {
		t.Error("clip corrupted through compression round trip")
	}

	if _, err := d.Get("absent"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get(absent) error = %v, want ErrMiss", err)
	}
}

func TestDiskSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	clip := bytes.Repeat([]byte("audio"), 500)
	key := Key("persistent", "voice", 1.0)

	d1, err := NewDisk(dir, 1<<20)
	if err != nil {
		t.Fatalf("NewDisk() error = %v", err)
	}
	if err := d1.Put(key, clip); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	d1.Close()

	d2, err := NewDisk(dir, 1<<20)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer d2.Close()

	got, err := d2.Get(key)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if !bytes.Equal(got, clip) {
		t.Error("clip corrupted across reopen")
	}
	if s := d2.Stats(); s.Items != 1 {
		t.Errorf("Stats() after reopen = %d items, want 1", s.Items)
	}
}

func TestTieredPromotesDiskHits(t *testing.T) {
	disk, err := NewDisk(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("NewDisk() error = %v", err)
	}
	tc := NewTiered(NewMemory(1<<20), disk)
	defer tc.Close()

	clip := bytes.Repeat([]byte("x"), 2048)
	key := Key("promote me", "voice", 1.0)

	// Seed the disk tier only.
	if err := disk.Put(key, clip); err != nil {
		t.Fatalf("disk Put() error = %v", err)
	}

	if _, err := tc.Get(key); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// The second lookup is served from memory.
	before := tc.Stats().Hits
	if _, err := tc.Get(key); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if after := tc.Stats().Hits; after != before+1 {
		t.Errorf("memory hits went %d to %d, want promotion to memory", before, after)
	}
}

func TestTieredMemoryOnly(t *testing.T) {
	tc := NewTiered(NewMemory(1024), nil)
	defer tc.Close()

	if err := tc.Put("k", []byte("clip")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := tc.Get("k"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := tc.Get("absent"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get(absent) error = %v, want ErrMiss", err)
	}
}
