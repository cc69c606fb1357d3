package playback

// chapterEndEpsilon keeps a fraction that lands exactly on a chapter's end
// boundary attributed to that chapter instead of spilling into the next one.
const chapterEndEpsilon = 1e-6

// Position tracks where playback currently is within a TextSource: the
// absolute character offset, the same position as a fraction of the full
// text, and the containing chapter with chapter-relative progress.
type Position struct {
	CharOffset      int
	GlobalFraction  float64
	ChapterIndex    int
	ChapterProgress float64
}

// PositionForOffset computes the full Position for a character offset,
// clamping the offset into the source's bounds first.
func PositionForOffset(src *TextSource, offset int) Position {
	offset = src.ClampOffset(offset)

	n := src.Len()
	if n == 0 {
		return Position{}
	}

	frac := float64(offset) / float64(n)
	ci := ChapterIndexForFraction(src.Chapters(), frac)

	pos := Position{
		CharOffset:     offset,
		GlobalFraction: frac,
		ChapterIndex:   ci,
	}

	if ci >= 0 && ci < src.ChapterCount() {
		c := src.Chapters()[ci]
		span := c.EndFraction - c.StartFraction
		if span > 0 {
			p := (frac - c.StartFraction) / span
			if p < 0 {
				p = 0
			}
			if p > 1 {
				p = 1
			}
			pos.ChapterProgress = p
		}
	}

	return pos
}

// PositionForFraction computes the Position for a global progress fraction
// in [0, 1], clamping out-of-range values.
func PositionForFraction(src *TextSource, frac float64) Position {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return PositionForOffset(src, int(frac*float64(src.Len())))
}

// ChapterIndexForFraction returns the index of the chapter whose
// [StartFraction, EndFraction) range contains the given fraction. A fraction
// contained by no chapter but within epsilon of a chapter's end still belongs
// to that chapter. Fractions falling into a gap between chapters resolve to
// the nearest preceding chapter; fractions before the first chapter resolve
// to 0.
func ChapterIndexForFraction(chapters []Chapter, frac float64) int {
	if len(chapters) == 0 {
		return 0
	}

	// Half-open containment wins outright: a fraction on a shared boundary
	// belongs to the chapter that starts there, never the one that ends.
	for i, c := range chapters {
		if frac >= c.StartFraction && frac < c.EndFraction {
			return i
		}
	}

	// Only fractions no chapter contains (the last chapter's end, gaps) get
	// the end-boundary clamp.
	for i, c := range chapters {
		if frac >= c.EndFraction-chapterEndEpsilon && frac <= c.EndFraction {
			return i
		}
	}

	// Gap or past the last chapter: nearest preceding chapter wins.
	last := 0
	for i, c := range chapters {
		if frac >= c.StartFraction {
			last = i
		}
	}
	return last
}

// ChapterStartOffset returns the character offset navigation should target
// when jumping to the given chapter.
func ChapterStartOffset(src *TextSource, index int) (int, error) {
	c, err := src.ChapterAt(index)
	if err != nil {
		return 0, err
	}
	return c.StartIndex, nil
}
