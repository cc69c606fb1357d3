package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const clipExt = ".pcm.zst"

// Disk is a persistent tier storing zstd-compressed clips as one file per
// key. Eviction drops the oldest files first, by modification time.
type Disk struct {
	dir      string
	capacity int64

	enc *zstd.Encoder
	dec *zstd.Decoder

	mu    sync.Mutex
	size  int64
	stats Stats
}

// NewDisk opens (creating if needed) a disk tier rooted at dir, holding up
// to capacity compressed bytes.
func NewDisk(dir string, capacity int64) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: creating %s: %w", dir, err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("cache: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("cache: zstd decoder: %w", err)
	}

	d := &Disk{
		dir:      dir,
		capacity: capacity,
		enc:      enc,
		dec:      dec,
		stats:    Stats{Capacity: capacity},
	}
	d.size, d.stats.Items = d.scan()
	return d, nil
}

// scan totals the existing clip files.
func (d *Disk) scan() (int64, int) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, 0
	}
	var size int64
	var count int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), clipExt) {
			continue
		}
		if info, err := e.Info(); err == nil {
			size += info.Size()
			count++
		}
	}
	return size, count
}

func (d *Disk) path(key string) string {
	return filepath.Join(d.dir, key+clipExt)
}

func (d *Disk) Get(key string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.path(key))
	if err != nil {
		d.stats.Misses++
		return nil, ErrMiss
	}

	clip, err := d.dec.DecodeAll(data, nil)
	if err != nil {
		// Corrupt file; drop it rather than serving garbage.
		_ = os.Remove(d.path(key))
		d.size -= int64(len(data))
		d.stats.Items--
		d.stats.Misses++
		return nil, ErrMiss
	}

	now := time.Now()
	_ = os.Chtimes(d.path(key), now, now)
	d.stats.Hits++
	return clip, nil
}

func (d *Disk) Put(key string, clip []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data := d.enc.EncodeAll(clip, nil)
	n := int64(len(data))
	if n > d.capacity {
		return ErrTooLarge
	}

	for d.size+n > d.capacity {
		if !d.evictOldest() {
			break
		}
	}

	path := d.path(key)
	if prev, err := os.Stat(path); err == nil {
		d.size -= prev.Size()
		d.stats.Items--
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cache: writing clip: %w", err)
	}
	d.size += n
	d.stats.Items++
	return nil
}

// evictOldest removes the least recently touched clip file. Caller holds
// the lock. Reports whether anything was removed.
func (d *Disk) evictOldest() bool {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return false
	}

	type candidate struct {
		name  string
		size  int64
		mtime time.Time
	}
	var clips []candidate
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), clipExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		clips = append(clips, candidate{e.Name(), info.Size(), info.ModTime()})
	}
	if len(clips) == 0 {
		return false
	}

	sort.Slice(clips, func(i, j int) bool { return clips[i].mtime.Before(clips[j].mtime) })
	oldest := clips[0]
	if err := os.Remove(filepath.Join(d.dir, oldest.name)); err != nil {
		return false
	}
	d.size -= oldest.size
	d.stats.Items--
	return true
}

func (d *Disk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Size = d.size
	return s
}

func (d *Disk) Close() error {
	d.enc.Close()
	d.dec.Close()
	return nil
}
