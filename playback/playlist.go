package playback

// Playlist supplies item ordering for list playback. The coordinator asks it
// for the item following the current one when an item completes naturally
// under RepeatAll, and for explicit next/previous navigation.
type Playlist interface {
	// Next returns the item after currentID for the given repeat mode, and
	// whether one exists. Under RepeatAll implementations wrap around.
	Next(currentID string, mode RepeatMode) (string, bool)

	// Previous returns the item before currentID, and whether one exists.
	Previous(currentID string) (string, bool)
}

// SourceProvider loads the extracted text and chapters for a content item.
// Failures are surfaced to the user as "cannot play" with the extraction
// error; the coordinator does not retry.
type SourceProvider interface {
	// Source builds the TextSource for an item id.
	Source(itemID string) (*TextSource, error)
}
