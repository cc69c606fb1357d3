// Package cache stores synthesized speech clips so repeated playback of the
// same text does not re-run the synthesizer. Clips are keyed by a hash of
// the text, voice, and rate; a bounded memory tier sits in front of a
// compressed disk tier.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

var (
	// ErrMiss is returned when a clip is not cached.
	ErrMiss = errors.New("cache miss")

	// ErrTooLarge is returned when a clip exceeds the tier's capacity.
	ErrTooLarge = errors.New("clip too large for cache")
)

// Store is a synthesized-clip cache tier.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, clip []byte) error
	Stats() Stats
	Close() error
}

// Key derives the cache key for a synthesis request. Everything that
// changes the audio goes into the hash.
func Key(text, voiceID string, rate float64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%.3f", text, voiceID, rate)
	return hex.EncodeToString(h.Sum(nil))
}

// Stats describes a tier's occupancy and hit rate.
type Stats struct {
	Capacity int64
	Size     int64
	Items    int
	Hits     int64
	Misses   int64
}

// HitRate returns the fraction of lookups served from this tier.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// String renders the stats for log output.
func (s Stats) String() string {
	return fmt.Sprintf("%d clips, %s of %s, %.0f%% hit rate",
		s.Items,
		humanize.IBytes(uint64(s.Size)),
		humanize.IBytes(uint64(s.Capacity)),
		s.HitRate()*100)
}
