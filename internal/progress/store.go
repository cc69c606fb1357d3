// Package progress persists reading positions between runs. Positions for
// all items live in one JSON file under the platform state directory, keyed
// by item id, so a document keeps its place even when moved or renamed.
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	gap "github.com/muesli/go-app-paths"

	"github.com/lectern-tts/lectern/playback"
)

const stateFileName = "positions.json"

// Store is the JSON-file playback.ProgressStore. Writes go through a temp
// file rename so a crash cannot leave a truncated state file.
type Store struct {
	path string

	mu   sync.Mutex
	data map[string]playback.Progress
}

// NewStore creates or loads the store in the app's data directory.
func NewStore() (*Store, error) {
	scope := gap.NewScope(gap.User, "lectern")
	dir, err := scope.DataPath("")
	if err != nil {
		return nil, fmt.Errorf("progress: resolving data dir: %w", err)
	}
	return NewStoreAt(filepath.Join(dir, stateFileName))
}

// NewStoreAt creates or loads the store at an explicit path.
func NewStoreAt(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("progress: creating state dir: %w", err)
	}

	s := &Store{path: path, data: make(map[string]playback.Progress)}
	if err := s.load(); err != nil {
		// Unreadable state starts fresh rather than failing startup.
		s.data = make(map[string]playback.Progress)
	}
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, &s.data)
}

// flush writes the whole map atomically. Caller holds the lock.
func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("progress: encoding state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("progress: writing state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("progress: replacing state: %w", err)
	}
	return nil
}

func (s *Store) Save(itemID string, p playback.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[itemID] = p
	return s.flush()
}

func (s *Store) Load(itemID string) (playback.Progress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data[itemID]
	return p, ok, nil
}

func (s *Store) Clear(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[itemID]; !ok {
		return nil
	}
	delete(s.data, itemID)
	return s.flush()
}

var _ playback.ProgressStore = (*Store)(nil)
