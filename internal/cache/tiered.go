package cache

// Tiered layers a memory tier over a disk tier. Gets promote disk hits into
// memory; puts land in both.
type Tiered struct {
	memory *Memory
	disk   *Disk
}

// NewTiered combines the two tiers. The disk tier may be nil, which leaves
// a memory-only cache.
func NewTiered(memory *Memory, disk *Disk) *Tiered {
	return &Tiered{memory: memory, disk: disk}
}

func (t *Tiered) Get(key string) ([]byte, error) {
	if clip, err := t.memory.Get(key); err == nil {
		return clip, nil
	}
	if t.disk == nil {
		return nil, ErrMiss
	}
	clip, err := t.disk.Get(key)
	if err != nil {
		return nil, err
	}
	// Promotion failure just means the clip stays disk-only.
	_ = t.memory.Put(key, clip)
	return clip, nil
}

func (t *Tiered) Put(key string, clip []byte) error {
	err := t.memory.Put(key, clip)
	if t.disk != nil {
		if derr := t.disk.Put(key, clip); derr != nil && err == nil {
			err = derr
		}
	}
	return err
}

// Stats returns the memory tier's stats; the disk tier is reported
// separately by DiskStats.
func (t *Tiered) Stats() Stats { return t.memory.Stats() }

// DiskStats returns the disk tier's stats, or a zero Stats when the cache
// is memory-only.
func (t *Tiered) DiskStats() Stats {
	if t.disk == nil {
		return Stats{}
	}
	return t.disk.Stats()
}

func (t *Tiered) Close() error {
	if t.disk != nil {
		return t.disk.Close()
	}
	return nil
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Disk)(nil)
	_ Store = (*Tiered)(nil)
)
