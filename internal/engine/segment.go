package engine

import (
	"regexp"
	"strings"
)

// Segment is one utterance-sized slice of the text handed to Speak, with
// offsets relative to that text.
type Segment struct {
	Text  string
	Start int
	End   int
}

var (
	sentenceEndRe = regexp.MustCompile(`([.!?]+["')\]]*)(\s+|$)`)

	// Trailing tokens that end with a period but do not end a sentence.
	abbrevRe = regexp.MustCompile(`(?i)\b(mr|mrs|ms|dr|prof|sr|jr|st|vs|etc|i\.?e|e\.?g|inc|ltd|co|no|vol|fig|approx)\.$`)
)

const (
	// maxSegmentChars bounds what a single synthesis call is asked to
	// produce; paragraphs without sentence punctuation get chunked.
	maxSegmentChars = 500

	minSegmentChars = 2
)

// SplitSegments slices plain text into sentence-sized segments for
// synthesis. Whitespace-only stretches produce no segments. Offsets always
// index into the original text, so BaseOffset arithmetic stays valid.
func SplitSegments(text string) []Segment {
	var segs []Segment
	start := 0

	for _, m := range sentenceEndRe.FindAllStringIndex(text, -1) {
		end := m[1]
		if abbrevRe.MatchString(strings.TrimSpace(text[start:m[0]]) + ".") {
			// Likely an abbreviation; keep scanning for a real boundary.
			continue
		}
		segs = appendSegment(segs, text, start, end)
		start = end
	}

	if start < len(text) {
		segs = appendSegment(segs, text, start, len(text))
	}

	return segs
}

// appendSegment trims the slice to its spoken content and splits anything
// still over the synthesis size limit on whitespace.
func appendSegment(segs []Segment, text string, start, end int) []Segment {
	for start < end {
		s, e := trimBounds(text, start, end)
		if e-s < minSegmentChars {
			return segs
		}
		if e-s <= maxSegmentChars {
			return append(segs, Segment{Text: text[s:e], Start: s, End: e})
		}

		cut := s + maxSegmentChars
		if i := strings.LastIndexAny(text[s:cut], " \t\n"); i > 0 {
			cut = s + i
		}
		cs, ce := trimBounds(text, s, cut)
		if ce-cs >= minSegmentChars {
			segs = append(segs, Segment{Text: text[cs:ce], Start: cs, End: ce})
		}
		start = cut
	}
	return segs
}

// trimBounds narrows [start, end) past surrounding whitespace.
func trimBounds(text string, start, end int) (int, int) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return start, end
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
