package main

import (
	"fmt"

	"github.com/muesli/termenv"

	"github.com/lectern-tts/lectern/playback"
)

// windowTitleSink mirrors the current document into the terminal's window
// title so the reading is identifiable from the window list.
type windowTitleSink struct {
	out *termenv.Output
}

func newWindowTitleSink() *windowTitleSink {
	return &windowTitleSink{out: termenv.DefaultOutput()}
}

func (s *windowTitleSink) Update(info playback.NowPlayingInfo) {
	icon := "⏸"
	if info.Playing {
		icon = "▶"
	}
	title := info.Title
	if info.Chapter != "" {
		title = fmt.Sprintf("%s · %s", title, info.Chapter)
	}
	s.out.SetWindowTitle(fmt.Sprintf("%s %s", icon, title))
}

func (s *windowTitleSink) Clear() {
	s.out.SetWindowTitle("lectern")
}
