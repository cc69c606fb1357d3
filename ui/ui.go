// Package ui is the terminal player: a document view that follows the
// spoken position, transport controls on the keyboard, and a status line
// fed by the coordinator's state snapshots.
package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lectern-tts/lectern/internal/library"
	"github.com/lectern-tts/lectern/playback"
)

// Player is the slice of the coordinator the UI drives.
type Player interface {
	Play(itemID string) error
	TogglePlayPause() error
	Stop() error
	SkipForward() error
	SkipBackward() error
	NextChapter() error
	PreviousChapter() error
	NextItem() error
	PreviousItem() error
	SetRate(rate float64) error
	SetRepeatMode(mode playback.RepeatMode) error
	State() playback.StateType
	CurrentItem() string
}

const rateStep = 0.25

type model struct {
	cfg    Config
	player Player
	lib    *library.Library
	snaps  <-chan playback.Snapshot
	docs   <-chan string
	keys   keyMap
	logger *log.Logger

	viewport viewport.Model
	bar      progress.Model
	help     help.Model

	width, height int
	ready         bool

	snap    playback.Snapshot
	repeat  playback.RepeatMode
	rate    float64
	elapsed time.Duration
	started time.Time
	lastErr error
}

// Options are the UI's collaborators.
type Options struct {
	Config  Config
	Player  Player
	Library *library.Library
	Global  *playback.GlobalState
	Docs    <-chan string
	Logger  *log.Logger
}

// NewProgram builds the bubbletea program for the player.
func NewProgram(opts Options) *tea.Program {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	m := model{
		cfg:    opts.Config,
		player: opts.Player,
		lib:    opts.Library,
		snaps:  opts.Global.Subscribe(),
		docs:   opts.Docs,
		keys:   defaultKeyMap(),
		logger: logger.WithPrefix("ui"),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:   help.New(),
		rate:   1.0,
	}

	teaOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Config.EnableMouse {
		teaOpts = append(teaOpts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(m, teaOpts...)
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForSnapshot(), m.waitForDocChange()}
	if m.cfg.InitialItem != "" {
		cmds = append(cmds, m.playCmd(m.cfg.InitialItem))
	}
	return tea.Batch(cmds...)
}

// waitForSnapshot relays coordinator snapshots into the update loop.
func (m model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-m.snaps
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m model) waitForDocChange() tea.Cmd {
	if m.docs == nil {
		return nil
	}
	return func() tea.Msg {
		id, ok := <-m.docs
		if !ok {
			return nil
		}
		return docChangedMsg(id)
	}
}

func (m model) playCmd(itemID string) tea.Cmd {
	return func() tea.Msg {
		if err := m.player.Play(itemID); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

// control wraps a player call so its error lands in the status bar.
func control(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case snapshotMsg:
		return m.handleSnapshot(playback.Snapshot(msg))

	case docChangedMsg:
		if string(msg) == m.snap.ItemID {
			m.setDocument(string(msg))
		}
		return m, m.waitForDocChange()

	case errMsg:
		m.lastErr = msg.err
		m.logger.Error("player command failed", "err", msg.err)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) handleResize(msg tea.WindowSizeMsg) model {
	m.width, m.height = msg.Width, msg.Height
	m.help.Width = msg.Width
	m.bar.Width = msg.Width

	chrome := 3 // progress bar, status bar, help line
	if !m.ready {
		m.viewport = viewport.New(msg.Width, msg.Height-chrome)
		m.ready = true
		if m.snap.ItemID != "" {
			m.setDocument(m.snap.ItemID)
		}
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - chrome
	}
	return m
}

func (m model) handleSnapshot(snap playback.Snapshot) (tea.Model, tea.Cmd) {
	itemChanged := snap.ItemID != "" && snap.ItemID != m.snap.ItemID
	m.snap = snap
	m.rate = snap.Rate
	m.lastErr = nil

	if itemChanged {
		m.started = time.Now()
		m.elapsed = 0
		if m.ready {
			m.setDocument(snap.ItemID)
		}
	}
	if snap.Playing {
		m.elapsed = time.Since(m.started)
	}

	if m.cfg.FollowPlayback && snap.Playing && m.ready {
		m.followPosition(snap.Position.GlobalFraction)
	}
	return m, m.waitForSnapshot()
}

// setDocument renders the item's text into the viewport.
func (m *model) setDocument(itemID string) {
	src, err := m.lib.Source(itemID)
	if err != nil {
		m.lastErr = err
		return
	}

	content := src.Text()
	if m.cfg.GlamourEnabled {
		width := m.viewport.Width
		if m.cfg.GlamourMaxWidth > 0 && width > int(m.cfg.GlamourMaxWidth) {
			width = int(m.cfg.GlamourMaxWidth)
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStylePath(m.cfg.GlamourStyle),
			glamour.WithColorProfile(termenv.ColorProfile()),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			if out, err := r.Render(content); err == nil {
				content = out
			}
		}
	}
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

// followPosition keeps the spoken position inside the viewport.
func (m *model) followPosition(fraction float64) {
	total := m.viewport.TotalLineCount()
	if total <= m.viewport.Height {
		return
	}
	target := int(fraction*float64(total)) - m.viewport.Height/2
	if target < 0 {
		target = 0
	}
	m.viewport.SetYOffset(target)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, k.Toggle):
		if m.snap.State == playback.StateIdle && m.snap.ItemID != "" {
			return m, m.playCmd(m.snap.ItemID)
		}
		return m, control(m.player.TogglePlayPause)

	case key.Matches(msg, k.Stop):
		return m, control(m.player.Stop)

	case key.Matches(msg, k.SkipBack):
		return m, control(m.player.SkipBackward)

	case key.Matches(msg, k.SkipForward):
		return m, control(m.player.SkipForward)

	case key.Matches(msg, k.PrevChapter):
		return m, control(m.player.PreviousChapter)

	case key.Matches(msg, k.NextChapter):
		return m, control(m.player.NextChapter)

	case key.Matches(msg, k.PrevItem):
		return m, control(m.player.PreviousItem)

	case key.Matches(msg, k.NextItem):
		return m, control(m.player.NextItem)

	case key.Matches(msg, k.SlowDown):
		return m, m.changeRate(-rateStep)

	case key.Matches(msg, k.SpeedUp):
		return m, m.changeRate(rateStep)

	case key.Matches(msg, k.Repeat):
		m.repeat = nextRepeatMode(m.repeat)
		repeat := m.repeat
		return m, control(func() error { return m.player.SetRepeatMode(repeat) })

	case key.Matches(msg, k.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, k.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) changeRate(delta float64) tea.Cmd {
	rate := clampRate(m.rate + delta)
	if rate == m.rate {
		return nil
	}
	return control(func() error { return m.player.SetRate(rate) })
}

func clampRate(rate float64) float64 {
	if rate < 0.5 {
		return 0.5
	}
	if rate > 2.0 {
		return 2.0
	}
	return rate
}

func nextRepeatMode(mode playback.RepeatMode) playback.RepeatMode {
	switch mode {
	case playback.RepeatOff:
		return playback.RepeatOne
	case playback.RepeatOne:
		return playback.RepeatAll
	default:
		return playback.RepeatOff
	}
}

func (m model) View() string {
	if !m.ready {
		return "\n  loading…"
	}

	bar := m.bar.ViewAs(m.snap.Position.GlobalFraction)
	status := renderStatusBar(m.width, m.snap, m.repeat, m.elapsed, m.lastErr)
	helpView := m.help.View(m.keys)

	return m.viewport.View() + "\n" + bar + "\n" + status + "\n" + helpView
}
