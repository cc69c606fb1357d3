// Package playback implements the read-aloud playback core: a text source
// with chapter navigation, a position model, a pluggable speech engine
// adapter, and the coordinator state machine that reconciles user commands
// with asynchronous engine events.
package playback

import (
	"errors"
	"fmt"
)

// Chapter is a labeled, bounded sub-range of a document's full text used for
// navigation. Index bounds are rune-independent byte offsets into the text.
type Chapter struct {
	Title      string
	StartIndex int
	EndIndex   int

	// StartFraction and EndFraction express the chapter bounds as fractions
	// of the full text length. They are derived from the indices when the
	// TextSource is built.
	StartFraction float64
	EndFraction   float64
}

// TextSource holds a document's extracted plain text and its chapter
// boundaries. It is immutable once built; a reloaded document gets a fresh
// TextSource.
type TextSource struct {
	id       string
	title    string
	text     string
	chapters []Chapter
}

// NewTextSource builds a TextSource from extracted text and chapter bounds.
// Chapters must be in ascending order with 0 <= StartIndex < EndIndex <=
// len(text). Gaps between chapters are permitted (filtered low-content
// sections); overlap is not.
func NewTextSource(id, title, text string, chapters []Chapter) (*TextSource, error) {
	if id == "" {
		return nil, errors.New("text source id cannot be empty")
	}

	n := len(text)
	if len(chapters) == 0 && n > 0 {
		// Single implicit chapter covering the whole document.
		chapters = []Chapter{{Title: title, StartIndex: 0, EndIndex: n}}
	}

	prevEnd := 0
	for i := range chapters {
		c := &chapters[i]
		if c.StartIndex < 0 || c.EndIndex > n || c.StartIndex >= c.EndIndex {
			return nil, fmt.Errorf("chapter %d %q: invalid bounds [%d, %d) for text length %d",
				i, c.Title, c.StartIndex, c.EndIndex, n)
		}
		if c.StartIndex < prevEnd {
			return nil, fmt.Errorf("chapter %d %q overlaps previous chapter", i, c.Title)
		}
		prevEnd = c.EndIndex

		c.StartFraction = float64(c.StartIndex) / float64(n)
		c.EndFraction = float64(c.EndIndex) / float64(n)
	}

	return &TextSource{
		id:       id,
		title:    title,
		text:     text,
		chapters: chapters,
	}, nil
}

// ID returns the content item id this source was built for.
func (s *TextSource) ID() string { return s.id }

// Title returns the document title.
func (s *TextSource) Title() string { return s.title }

// Text returns the full extracted text.
func (s *TextSource) Text() string { return s.text }

// Len returns the length of the full text in bytes.
func (s *TextSource) Len() int { return len(s.text) }

// Chapters returns the ordered chapter list. Callers must not mutate it.
func (s *TextSource) Chapters() []Chapter { return s.chapters }

// ChapterCount returns the number of chapters.
func (s *TextSource) ChapterCount() int { return len(s.chapters) }

// ChapterAt returns the chapter with the given index.
func (s *TextSource) ChapterAt(i int) (Chapter, error) {
	if i < 0 || i >= len(s.chapters) {
		return Chapter{}, fmt.Errorf("chapter index %d out of range [0, %d)", i, len(s.chapters))
	}
	return s.chapters[i], nil
}

// SliceFrom returns the text from the given offset to the end, clamping the
// offset into valid bounds.
func (s *TextSource) SliceFrom(offset int) string {
	offset = s.ClampOffset(offset)
	return s.text[offset:]
}

// ClampOffset silently clamps an offset into [0, Len()]. Out-of-range seek
// targets are corrected rather than rejected.
func (s *TextSource) ClampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(s.text) {
		return len(s.text)
	}
	return offset
}
