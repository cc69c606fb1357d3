package playback

import (
	"math"
	"testing"
)

func twoChapterSource(t *testing.T) *TextSource {
	t.Helper()
	text := make([]byte, 1000)
	for i := range text {
		text[i] = 'a'
	}
	src, err := NewTextSource("doc-1", "Test Document", string(text), []Chapter{
		{Title: "One", StartIndex: 0, EndIndex: 500},
		{Title: "Two", StartIndex: 500, EndIndex: 1000},
	})
	if err != nil {
		t.Fatalf("NewTextSource() error = %v", err)
	}
	return src
}

// TestChapterIndexForFraction tests chapter containment across boundaries.
func TestChapterIndexForFraction(t *testing.T) {
	chapters := []Chapter{
		{Title: "One", StartFraction: 0.0, EndFraction: 0.5},
		{Title: "Two", StartFraction: 0.5, EndFraction: 1.0},
	}

	tests := []struct {
		name     string
		fraction float64
		expected int
	}{
		{"start of first", 0.0, 0},
		{"inside first", 0.25, 0},
		{"just below boundary", 0.4999, 0},
		{"within epsilon of boundary stays in first", 0.5 - chapterEndEpsilon/2, 0},
		{"boundary belongs to second", 0.5, 1},
		{"inside second", 0.75, 1},
		{"end clamps into last", 1.0, 1},
		{"epsilon below end stays in last", 1.0 - chapterEndEpsilon/2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChapterIndexForFraction(chapters, tt.fraction); got != tt.expected {
				t.Errorf("ChapterIndexForFraction(%v) = %d, want %d", tt.fraction, got, tt.expected)
			}
		})
	}
}

// TestChapterIndexForFractionGaps tests that fractions in filtered gaps
// resolve to the nearest preceding chapter.
func TestChapterIndexForFractionGaps(t *testing.T) {
	chapters := []Chapter{
		{Title: "One", StartFraction: 0.0, EndFraction: 0.4},
		{Title: "Two", StartFraction: 0.6, EndFraction: 1.0},
	}

	if got := ChapterIndexForFraction(chapters, 0.5); got != 0 {
		t.Errorf("gap fraction resolved to chapter %d, want 0", got)
	}
	if got := ChapterIndexForFraction(chapters, 0.7); got != 1 {
		t.Errorf("ChapterIndexForFraction(0.7) = %d, want 1", got)
	}
}

// TestPositionContainment verifies the chapter containment invariant for
// fractions swept across the whole document.
func TestPositionContainment(t *testing.T) {
	src := twoChapterSource(t)

	for f := 0.0; f < 1.0; f += 0.01 {
		pos := PositionForFraction(src, f)
		c := src.Chapters()[pos.ChapterIndex]
		if f >= c.StartFraction && f < c.EndFraction {
			continue
		}
		if f >= c.EndFraction-chapterEndEpsilon && f <= c.EndFraction {
			continue
		}
		t.Errorf("fraction %v assigned to chapter %d [%v, %v)", f, pos.ChapterIndex, c.StartFraction, c.EndFraction)
	}
}

// TestPositionForOffsetClamping tests that out-of-range offsets clamp
// silently to the nearest bound.
func TestPositionForOffsetClamping(t *testing.T) {
	src := twoChapterSource(t)

	tests := []struct {
		name   string
		offset int
		want   int
	}{
		{"negative clamps to zero", -50, 0},
		{"in range unchanged", 300, 300},
		{"past end clamps to length", 5000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := PositionForOffset(src, tt.offset)
			if pos.CharOffset != tt.want {
				t.Errorf("PositionForOffset(%d).CharOffset = %d, want %d", tt.offset, pos.CharOffset, tt.want)
			}
		})
	}
}

// TestChapterProgress tests chapter-relative progress computation.
func TestChapterProgress(t *testing.T) {
	src := twoChapterSource(t)

	pos := PositionForOffset(src, 750)
	if pos.ChapterIndex != 1 {
		t.Fatalf("ChapterIndex = %d, want 1", pos.ChapterIndex)
	}
	if math.Abs(pos.ChapterProgress-0.5) > 0.01 {
		t.Errorf("ChapterProgress = %v, want ~0.5", pos.ChapterProgress)
	}

	pos = PositionForOffset(src, 500)
	if pos.ChapterIndex != 1 {
		t.Fatalf("ChapterIndex at boundary = %d, want 1", pos.ChapterIndex)
	}
	if pos.ChapterProgress > 0.01 {
		t.Errorf("ChapterProgress at chapter start = %v, want ~0", pos.ChapterProgress)
	}
}

// TestNewTextSourceValidation tests chapter bound validation.
func TestNewTextSourceValidation(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		chapters []Chapter
		wantErr  bool
	}{
		{
			name: "valid adjacent chapters",
			text: "0123456789",
			chapters: []Chapter{
				{StartIndex: 0, EndIndex: 5},
				{StartIndex: 5, EndIndex: 10},
			},
		},
		{
			name: "valid with gap",
			text: "0123456789",
			chapters: []Chapter{
				{StartIndex: 0, EndIndex: 4},
				{StartIndex: 6, EndIndex: 10},
			},
		},
		{
			name: "end before start",
			text: "0123456789",
			chapters: []Chapter{
				{StartIndex: 5, EndIndex: 5},
			},
			wantErr: true,
		},
		{
			name: "end past text",
			text: "0123456789",
			chapters: []Chapter{
				{StartIndex: 0, EndIndex: 11},
			},
			wantErr: true,
		},
		{
			name: "overlapping chapters",
			text: "0123456789",
			chapters: []Chapter{
				{StartIndex: 0, EndIndex: 6},
				{StartIndex: 5, EndIndex: 10},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTextSource("id", "title", tt.text, tt.chapters)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTextSource() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestTextSourceFractions tests that fractions are derived from indices.
func TestTextSourceFractions(t *testing.T) {
	src := twoChapterSource(t)
	c := src.Chapters()[1]
	if c.StartFraction != 0.5 || c.EndFraction != 1.0 {
		t.Errorf("chapter 1 fractions = [%v, %v], want [0.5, 1.0]", c.StartFraction, c.EndFraction)
	}
}
