// Package library turns files on disk into readable items: it extracts
// speakable text and chapter structure from markdown or plain text,
// maintains the ordered collection the player walks through, and watches
// the underlying files for edits.
package library

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/lectern-tts/lectern/playback"
)

// idHashBytes is how much of the file feeds the item id, so identity
// follows content rather than path.
const idHashBytes = 8192

var markdownExtensions = []string{".md", ".markdown", ".mdown", ".mkdn"}

// Extract reads a file and builds its text source. Markdown files get
// chapters from their top-level headings; anything else is read as plain
// text with a single implicit chapter.
func Extract(path string) (*playback.TextSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", playback.ErrExtractionFailed, path, err)
	}

	id := contentID(raw)
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var text string
	var chapters []playback.Chapter
	if isMarkdown(path) {
		text, chapters, err = extractMarkdown(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", playback.ErrExtractionFailed, path, err)
		}
		if len(chapters) > 0 && chapters[0].StartIndex == 0 {
			title = chapters[0].Title
		}
	} else {
		text = normalizePlainText(string(raw))
	}

	src, err := playback.NewTextSource(id, title, text, chapters)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", playback.ErrExtractionFailed, path, err)
	}
	return src, nil
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range markdownExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// contentID hashes the head of the file, matching identity to content so a
// renamed document keeps its reading position.
func contentID(raw []byte) string {
	head := raw
	if len(head) > idHashBytes {
		head = head[:idHashBytes]
	}
	sum := sha256.Sum256(head)
	return hex.EncodeToString(sum[:16])
}

// extractMarkdown walks the goldmark AST collecting speakable text.
// Headings of level 1 and 2 open chapters; code blocks are skipped since
// reading them aloud is noise.
func extractMarkdown(raw []byte) (string, []playback.Chapter, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(raw))

	var b strings.Builder
	var chapters []playback.Chapter

	appendBlock := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s)
	}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			text := nodeText(node, raw)
			if node.Level <= 2 && text != "" {
				closeChapter(chapters, b.Len())
				start := b.Len()
				if start > 0 {
					start += 2 // the separator about to be written
				}
				chapters = append(chapters, playback.Chapter{Title: text, StartIndex: start})
			}
			appendBlock(text)
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.Blockquote:
			if _, inItem := node.Parent().(*ast.ListItem); inItem {
				return ast.WalkContinue, nil
			}
			appendBlock(nodeText(node, raw))
			return ast.WalkSkipChildren, nil

		case *ast.ListItem:
			appendBlock(nodeText(node, raw))
			return ast.WalkSkipChildren, nil

		case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", nil, err
	}

	text := b.String()
	closeChapter(chapters, len(text))
	return text, chapters, nil
}

// closeChapter sets the open chapter's end to the current offset.
func closeChapter(chapters []playback.Chapter, end int) {
	if len(chapters) > 0 && chapters[len(chapters)-1].EndIndex == 0 {
		chapters[len(chapters)-1].EndIndex = end
	}
}

// nodeText flattens a node's inline content to plain text.
func nodeText(node ast.Node, raw []byte) string {
	var b strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(raw))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.Image:
			// Alt text only; the URL is unreadable noise.
			b.WriteString(nodeText(c, raw))
		default:
			b.WriteString(nodeText(c, raw))
		}
	}
	return strings.TrimSpace(b.String())
}

// normalizePlainText collapses whitespace runs while keeping paragraph
// breaks, so offsets stay meaningful for seeking.
func normalizePlainText(s string) string {
	paragraphs := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n")
	var out []string
	for _, p := range paragraphs {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
