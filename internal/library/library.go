package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/muesli/gitcha"
	"github.com/sahilm/fuzzy"

	"github.com/lectern-tts/lectern/playback"
)

var readableExtensions = []string{"*.md", "*.markdown", "*.mdown", "*.mkdn", "*.txt"}

// Item is one readable document in the library.
type Item struct {
	ID    string
	Title string
	Path  string
}

// Library is the ordered collection of readable items. It implements both
// the source provider and the playlist the coordinator consumes.
type Library struct {
	logger *log.Logger

	mu      sync.RWMutex
	items   []Item
	byID    map[string]int
	sources map[string]*playback.TextSource
}

// New returns an empty library.
func New(logger *log.Logger) *Library {
	if logger == nil {
		logger = log.Default()
	}
	return &Library{
		logger:  logger.WithPrefix("library"),
		byID:    make(map[string]int),
		sources: make(map[string]*playback.TextSource),
	}
}

// Add extracts a file and appends it to the collection. Re-adding content
// already present is a no-op returning the existing id.
func (l *Library) Add(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", playback.ErrExtractionFailed, path, err)
	}

	src, err := Extract(abs)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byID[src.ID()]; ok {
		return src.ID(), nil
	}
	l.byID[src.ID()] = len(l.items)
	l.items = append(l.items, Item{ID: src.ID(), Title: src.Title(), Path: abs})
	l.sources[src.ID()] = src
	return src.ID(), nil
}

// ScanDir walks a directory tree for readable files, skipping whatever the
// repository's ignore files exclude, and adds them in path order.
func (l *Library) ScanDir(dir string) error {
	ch, err := gitcha.FindFilesExcept(dir, readableExtensions, nil)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}

	var paths []string
	for res := range ch {
		paths = append(paths, res.Path)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if _, err := l.Add(p); err != nil {
			l.logger.Warn("skipping unreadable file", "path", p, "err", err)
		}
	}

	if len(l.Items()) == 0 {
		return fmt.Errorf("%w: no readable files under %s", playback.ErrNoContent, dir)
	}
	return nil
}

// Open loads a path, directory or file, into the library.
func (l *Library) Open(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", playback.ErrExtractionFailed, path, err)
	}
	if info.IsDir() {
		return l.ScanDir(path)
	}
	_, err = l.Add(path)
	return err
}

// Items returns the collection in playback order.
func (l *Library) Items() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Item returns the entry for an id.
func (l *Library) Item(id string) (Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byID[id]
	if !ok {
		return Item{}, false
	}
	return l.items[i], true
}

// Source returns the extracted text for an item.
func (l *Library) Source(itemID string) (*playback.TextSource, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	src, ok := l.sources[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", playback.ErrUnknownItem, itemID)
	}
	return src, nil
}

// Next returns the item after the current one. At the end of the list,
// RepeatAll wraps to the first item; other modes report no next item.
func (l *Library) Next(currentID string, mode playback.RepeatMode) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byID[currentID]
	if !ok || len(l.items) == 0 {
		return "", false
	}
	if i+1 < len(l.items) {
		return l.items[i+1].ID, true
	}
	if mode == playback.RepeatAll {
		return l.items[0].ID, true
	}
	return "", false
}

// Previous returns the item before the current one.
func (l *Library) Previous(currentID string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byID[currentID]
	if !ok || i == 0 {
		return "", false
	}
	return l.items[i-1].ID, true
}

// Filter returns items whose titles fuzzy-match the query, best first. An
// empty query returns everything in order.
func (l *Library) Filter(query string) []Item {
	items := l.Items()
	if query == "" {
		return items
	}

	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
	}

	matches := fuzzy.Find(query, titles)
	out := make([]Item, 0, len(matches))
	for _, m := range matches {
		out = append(out, items[m.Index])
	}
	return out
}

// reload re-extracts a changed file, keeping the item's id stable for the
// session so playback and saved progress stay attached to it.
func (l *Library) reload(path string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var id string
	for _, it := range l.items {
		if it.Path == path {
			id = it.ID
			break
		}
	}
	if id == "" {
		return "", fmt.Errorf("%w: %s", playback.ErrUnknownItem, path)
	}

	fresh, err := Extract(path)
	if err != nil {
		return "", err
	}

	src, err := playback.NewTextSource(id, fresh.Title(), fresh.Text(), fresh.Chapters())
	if err != nil {
		return "", err
	}
	l.sources[id] = src
	l.items[l.byID[id]].Title = src.Title()
	return id, nil
}

var (
	_ playback.SourceProvider = (*Library)(nil)
	_ playback.Playlist       = (*Library)(nil)
)
