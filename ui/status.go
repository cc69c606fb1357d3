package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/lectern-tts/lectern/playback"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#343433", Dark: "#C1C6B2"}).
			Background(lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#353533"})

	statusIconStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#FF5FB2")).
			Padding(0, 1)

	statusNoteStyle = statusBarStyle.Padding(0, 1)

	statusMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#7D7D7D", Dark: "#979797"}).
			Background(lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#353533"}).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#FF4343")).
			Padding(0, 1)
)

// stateIcon returns the transport glyph for a state.
func stateIcon(s playback.StateType) string {
	switch s {
	case playback.StatePlaying:
		return "▶"
	case playback.StatePaused:
		return "⏸"
	case playback.StateTransitioning:
		return "…"
	default:
		return "■"
	}
}

// formatClock renders a duration as m:ss or h:mm:ss.
func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// renderStatusBar lays out icon, title, and playback metadata in one line.
func renderStatusBar(width int, snap playback.Snapshot, repeat playback.RepeatMode, elapsed time.Duration, lastErr error) string {
	if width <= 0 {
		return ""
	}

	icon := statusIconStyle.Render(stateIcon(snap.State))

	if lastErr != nil {
		msg := truncate.StringWithTail(lastErr.Error(), uint(max(0, width-lipgloss.Width(icon))), "…")
		return icon + errorStyle.Width(max(0, width-lipgloss.Width(icon))).Render(msg)
	}

	var meta []string
	if snap.Chapter != "" {
		meta = append(meta, snap.Chapter)
	}
	meta = append(meta,
		fmt.Sprintf("%d%%", int(snap.Position.GlobalFraction*100)),
		formatClock(elapsed),
		fmt.Sprintf("%.2gx", snap.Rate),
	)
	if repeat != playback.RepeatOff {
		meta = append(meta, "repeat "+repeat.String())
	}
	right := statusMetaStyle.Render(strings.Join(meta, " · "))

	title := snap.Title
	if title == "" {
		title = "nothing loaded"
	}
	avail := width - lipgloss.Width(icon) - lipgloss.Width(right)
	if avail < 4 {
		right = ""
		avail = width - lipgloss.Width(icon)
	}
	note := statusNoteStyle.Width(max(0, avail)).Render(
		truncate.StringWithTail(title, uint(max(0, avail-2)), "…"))

	return icon + note + right
}
