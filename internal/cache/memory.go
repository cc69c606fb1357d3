package cache

import (
	"container/list"
	"sync"
)

// Memory is an LRU-evicting in-memory tier bounded by total clip bytes.
type Memory struct {
	capacity int64

	mu    sync.Mutex
	size  int64
	items map[string]*list.Element
	lru   *list.List
	stats Stats
}

type memoryEntry struct {
	key  string
	clip []byte
}

// NewMemory creates a memory tier holding up to capacity bytes of clips.
func NewMemory(capacity int64) *Memory {
	return &Memory{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
		stats:    Stats{Capacity: capacity},
	}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		m.stats.Misses++
		return nil, ErrMiss
	}
	m.lru.MoveToFront(elem)
	m.stats.Hits++
	return elem.Value.(*memoryEntry).clip, nil
}

func (m *Memory) Put(key string, clip []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(clip))
	if n > m.capacity {
		return ErrTooLarge
	}

	if elem, ok := m.items[key]; ok {
		entry := elem.Value.(*memoryEntry)
		m.size += n - int64(len(entry.clip))
		entry.clip = clip
		m.lru.MoveToFront(elem)
		return nil
	}

	for m.size+n > m.capacity && m.lru.Len() > 0 {
		m.evictOldest()
	}

	m.items[key] = m.lru.PushFront(&memoryEntry{key: key, clip: clip})
	m.size += n
	return nil
}

// evictOldest drops the least recently used clip. Caller holds the lock.
func (m *Memory) evictOldest() {
	elem := m.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*memoryEntry)
	m.lru.Remove(elem)
	delete(m.items, entry.key)
	m.size -= int64(len(entry.clip))
}

func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Size = m.size
	s.Items = m.lru.Len()
	return s
}

func (m *Memory) Close() error { return nil }
