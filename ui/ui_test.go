package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lectern-tts/lectern/playback"
)

type fakePlayer struct {
	calls []string
	rate  float64
	mode  playback.RepeatMode
}

func (f *fakePlayer) record(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakePlayer) Play(itemID string) error  { return f.record("play:" + itemID) }
func (f *fakePlayer) TogglePlayPause() error    { return f.record("toggle") }
func (f *fakePlayer) Stop() error               { return f.record("stop") }
func (f *fakePlayer) SkipForward() error        { return f.record("skip+") }
func (f *fakePlayer) SkipBackward() error       { return f.record("skip-") }
func (f *fakePlayer) NextChapter() error        { return f.record("chapter+") }
func (f *fakePlayer) PreviousChapter() error    { return f.record("chapter-") }
func (f *fakePlayer) NextItem() error           { return f.record("item+") }
func (f *fakePlayer) PreviousItem() error       { return f.record("item-") }
func (f *fakePlayer) SetRate(r float64) error   { f.rate = r; return f.record("rate") }
func (f *fakePlayer) State() playback.StateType { return playback.StatePlaying }
func (f *fakePlayer) CurrentItem() string       { return "doc" }

func (f *fakePlayer) SetRepeatMode(m playback.RepeatMode) error {
	f.mode = m
	return f.record("repeat")
}

func testModel(p Player) model {
	return model{
		player: p,
		keys:   defaultKeyMap(),
		rate:   1.0,
		snap:   playback.Snapshot{State: playback.StatePlaying, ItemID: "doc"},
	}
}

// runCmd executes a command chain until it stops producing messages.
func runCmd(t *testing.T, m tea.Model, cmd tea.Cmd) {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return
		}
		m, cmd = m.Update(msg)
	}
}

func TestKeysDriveThePlayer(t *testing.T) {
	cases := []struct {
		key  string
		want string
	}{
		{" ", "toggle"},
		{"s", "stop"},
		{"l", "skip+"},
		{"h", "skip-"},
		{"n", "chapter+"},
		{"p", "chapter-"},
		{"N", "item+"},
		{"P", "item-"},
	}
	for _, tc := range cases {
		fake := &fakePlayer{}
		m := testModel(fake)
		next, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tc.key)})
		runCmd(t, next, cmd)
		if len(fake.calls) != 1 || fake.calls[0] != tc.want {
			t.Errorf("key %q: calls = %v, want [%s]", tc.key, fake.calls, tc.want)
		}
	}
}

func TestSpaceStartsPlaybackFromIdle(t *testing.T) {
	fake := &fakePlayer{}
	m := testModel(fake)
	m.snap.State = playback.StateIdle
	next, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" ")})
	runCmd(t, next, cmd)
	if len(fake.calls) != 1 || fake.calls[0] != "play:doc" {
		t.Errorf("calls = %v, want [play:doc]", fake.calls)
	}
}

func TestRateKeysClamp(t *testing.T) {
	fake := &fakePlayer{}
	m := testModel(fake)
	m.rate = 2.0

	next, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})
	runCmd(t, next, cmd)
	if len(fake.calls) != 0 {
		t.Errorf("speed up at max rate should be a no-op, got %v", fake.calls)
	}

	next, cmd = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	runCmd(t, next, cmd)
	if fake.rate != 1.75 {
		t.Errorf("rate = %v, want 1.75", fake.rate)
	}
}

func TestRepeatKeyCyclesModes(t *testing.T) {
	fake := &fakePlayer{}
	m := testModel(fake)

	want := []playback.RepeatMode{playback.RepeatOne, playback.RepeatAll, playback.RepeatOff}
	cur := tea.Model(m)
	for _, mode := range want {
		next, cmd := cur.(model).handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
		runCmd(t, next, cmd)
		cur = next
		if fake.mode != mode {
			t.Fatalf("repeat mode = %v, want %v", fake.mode, mode)
		}
	}
}

func TestStatusBarShowsTitleAndMeta(t *testing.T) {
	snap := playback.Snapshot{
		Title:   "Moby Dick",
		State:   playback.StatePlaying,
		Chapter: "Loomings",
		Rate:    1.5,
		Position: playback.Position{
			GlobalFraction: 0.25,
		},
	}
	out := renderStatusBar(120, snap, playback.RepeatAll, 95*time.Second, nil)
	for _, want := range []string{"Moby Dick", "Loomings", "25%", "1:35", "1.5x", "repeat"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q:\n%s", want, out)
		}
	}
}

func TestStatusBarShowsError(t *testing.T) {
	out := renderStatusBar(80, playback.Snapshot{}, playback.RepeatOff, 0, playback.ErrNoContent)
	if !strings.Contains(out, playback.ErrNoContent.Error()) {
		t.Errorf("status bar missing error text:\n%s", out)
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{35 * time.Second, "0:35"},
		{95 * time.Second, "1:35"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "3:04:05"},
	}
	for _, tc := range cases {
		if got := formatClock(tc.d); got != tc.want {
			t.Errorf("formatClock(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
