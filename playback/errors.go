package playback

import "errors"

// Common errors for the playback core.
var (
	// ErrEmptyContent is returned when there is no text to speak. The
	// coordinator treats it as a logged no-op, never a user-facing error.
	ErrEmptyContent = errors.New("no text to speak")

	// ErrNoContent is returned when a command requires a loaded item and
	// none is loaded.
	ErrNoContent = errors.New("no content loaded")

	// ErrExtractionFailed wraps failures from the text source supplier. It
	// is the only error class surfaced to the UI as structured content.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrInvalidState is returned for commands that are not meaningful in
	// the current state (pause while idle, resume while playing).
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrInvalidChapter is returned for chapter jumps outside the source's
	// chapter list.
	ErrInvalidChapter = errors.New("chapter index out of range")

	// ErrCoordinatorClosed is returned for commands issued after Close.
	ErrCoordinatorClosed = errors.New("coordinator has been closed")

	// ErrUnknownItem is returned when the source provider has no content
	// for a requested item id.
	ErrUnknownItem = errors.New("unknown content item")
)
