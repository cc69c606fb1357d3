package playback

// Progress is the persisted playback position for one content item. It is
// written on pause, stop, the periodic save tick, and cleared when the item
// completes naturally under RepeatOff.
type Progress struct {
	CharOffset     int     `json:"char_offset"`
	Fraction       float64 `json:"fraction"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	WasPlaying     bool    `json:"was_playing"`
}

// ProgressStore persists per-item playback progress. Implementations need no
// transactional guarantees; this is single-device, single-writer state and
// last-write-wins is acceptable.
type ProgressStore interface {
	// Save stores the progress for an item, replacing any prior value.
	Save(itemID string, p Progress) error

	// Load returns the stored progress for an item and whether one exists.
	Load(itemID string) (Progress, bool, error)

	// Clear removes the stored progress for an item.
	Clear(itemID string) error
}
