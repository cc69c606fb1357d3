package playback

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Coordinator is the single authority for what should currently be spoken.
// It owns the active TextSource, the playback Position, and the speech
// Engine, and reconciles user commands with the engine's asynchronous
// events.
//
// All state mutations happen on one internal goroutine: commands and engine
// events are funneled through the same loop, so a user seek can never race
// an in-flight finished callback for the utterance it replaces.
type Coordinator struct {
	engine     Engine
	sources    SourceProvider
	playlist   Playlist
	store      ProgressStore
	global     *GlobalState
	nowPlaying NowPlayingSink
	cfg        Config
	logger     *log.Logger

	cmds chan command
	done chan struct{}
	wg   sync.WaitGroup

	closeOnce sync.Once

	// Everything below is owned by the command loop goroutine.
	sm      *StateMachine
	src     *TextSource
	pos     Position
	session uint64
	intent  Intent
	repeat  RepeatMode
	rate    float64
	voiceID string

	// pending is the start request to apply once the engine acknowledges
	// the current utterance has fully stopped. A newer request simply
	// replaces an older one that has not started yet.
	pending *startRequest

	// advancing guards against duplicate advance-to-next-item requests
	// collapsing the playlist position. Cleared when the next utterance
	// starts.
	advancing bool

	// shortTail marks the active session as a tail utterance: started past
	// the tail fraction or shorter than the minimum length. Natural
	// completion of such a session is handled without re-entering the
	// completion path.
	shortTail bool

	// needReseek is set when the user navigated chapters while paused; the
	// next resume must restart from the corrected offset instead of
	// resuming the stale utterance.
	needReseek bool

	waitingStart    bool
	watchdogC       <-chan time.Time
	watchdogSession uint64

	elapsed   time.Duration
	sinceSave time.Duration
}

// command is a request executed on the coordinator's loop goroutine.
type command struct {
	run   func() error
	reply chan error
}

// startRequest describes a deferred or immediate utterance start.
type startRequest struct {
	src     *TextSource
	offset  int
	elapsed time.Duration
}

// Options bundles the coordinator's collaborators and configuration.
type Options struct {
	Engine     Engine
	Sources    SourceProvider
	Playlist   Playlist
	Store      ProgressStore
	Global     *GlobalState
	NowPlaying NowPlayingSink
	Config     Config
	Logger     *log.Logger
}

// NewCoordinator creates a coordinator from the given options. Engine and
// Sources are required; the rest default to no-op collaborators.
func NewCoordinator(opts Options) (*Coordinator, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("coordinator requires an engine")
	}
	if opts.Sources == nil {
		return nil, fmt.Errorf("coordinator requires a source provider")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	sink := opts.NowPlaying
	if sink == nil {
		sink = NopNowPlayingSink{}
	}

	return &Coordinator{
		engine:     opts.Engine,
		sources:    opts.Sources,
		playlist:   opts.Playlist,
		store:      opts.Store,
		global:     opts.Global,
		nowPlaying: sink,
		cfg:        opts.Config,
		logger:     logger.WithPrefix("playback"),
		cmds:       make(chan command),
		done:       make(chan struct{}),
		sm:         NewStateMachine(),
		repeat:     opts.Config.RepeatMode(),
		rate:       opts.Config.Rate,
		voiceID:    opts.Config.VoiceID,
	}, nil
}

// Start launches the coordinator's command loop.
func (c *Coordinator) Start() {
	c.wg.Add(1)
	go c.loop()
}

// Close shuts down the coordinator and the engine it owns. Pending progress
// is persisted first.
func (c *Coordinator) Close() error {
	_ = c.do(func() error {
		if c.sm.IsActive() && c.src != nil {
			c.persist(c.sm.Current() == StatePlaying)
		}
		return nil
	})

	c.closeOnce.Do(func() { close(c.done) })
	c.wg.Wait()
	return c.engine.Close()
}

// do executes fn on the loop goroutine and returns its error.
func (c *Coordinator) do(fn func() error) error {
	cmd := command{run: fn, reply: make(chan error, 1)}
	select {
	case c.cmds <- cmd:
		return <-cmd.reply
	case <-c.done:
		return ErrCoordinatorClosed
	}
}

// Play loads an item, restores any persisted progress within bounds, and
// starts speaking. Extraction failures are returned wrapped in
// ErrExtractionFailed; they are the only errors intended for display.
func (c *Coordinator) Play(itemID string) error {
	return c.do(func() error { return c.handlePlay(itemID) })
}

// Pause pauses playback and persists the position synchronously.
func (c *Coordinator) Pause() error {
	return c.do(func() error { return c.handlePause() })
}

// Resume continues paused playback. If the user navigated chapters while
// paused, the engine is restarted from the corrected offset instead of
// resuming the stale utterance.
func (c *Coordinator) Resume() error {
	return c.do(func() error { return c.handleResume() })
}

// TogglePlayPause flips between playing and paused.
func (c *Coordinator) TogglePlayPause() error {
	return c.do(func() error {
		switch c.sm.Current() {
		case StatePlaying:
			return c.handlePause()
		case StatePaused:
			return c.handleResume()
		default:
			return ErrInvalidState
		}
	})
}

// Stop halts playback, persists the position, and returns to idle.
func (c *Coordinator) Stop() error {
	return c.do(func() error { return c.handleStop() })
}

// Seek moves playback to a global progress fraction in [0, 1]. Out-of-range
// values are clamped silently.
func (c *Coordinator) Seek(fraction float64) error {
	return c.do(func() error {
		if c.src == nil {
			return ErrNoContent
		}
		pos := PositionForFraction(c.src, fraction)
		return c.requestStart(&startRequest{src: c.src, offset: pos.CharOffset, elapsed: c.elapsed})
	})
}

// Skip moves playback by a signed duration, converted to characters at the
// current rate. The resulting offset is clamped into bounds.
func (c *Coordinator) Skip(d time.Duration) error {
	return c.do(func() error {
		if c.src == nil {
			return ErrNoContent
		}
		offset := c.src.ClampOffset(c.pos.CharOffset + c.cfg.SkipChars(d, c.rate))
		return c.requestStart(&startRequest{src: c.src, offset: offset, elapsed: c.elapsed})
	})
}

// SkipForward skips ahead by the configured transport interval.
func (c *Coordinator) SkipForward() error { return c.Skip(c.cfg.SkipInterval) }

// SkipBackward skips back by the configured transport interval.
func (c *Coordinator) SkipBackward() error { return c.Skip(-c.cfg.SkipInterval) }

// JumpToChapter moves playback to the start of the given chapter. While
// paused, only the position moves; playback stays paused and the next
// resume reseeks.
func (c *Coordinator) JumpToChapter(index int) error {
	return c.do(func() error { return c.handleJump(index) })
}

// NextChapter jumps to the chapter after the current one.
func (c *Coordinator) NextChapter() error {
	return c.do(func() error {
		if c.src == nil {
			return ErrNoContent
		}
		return c.handleJump(c.pos.ChapterIndex + 1)
	})
}

// PreviousChapter jumps to the chapter before the current one.
func (c *Coordinator) PreviousChapter() error {
	return c.do(func() error {
		if c.src == nil {
			return ErrNoContent
		}
		return c.handleJump(c.pos.ChapterIndex - 1)
	})
}

// NextItem switches to the next playlist item.
func (c *Coordinator) NextItem() error {
	return c.do(func() error {
		if c.playlist == nil || c.src == nil {
			return ErrNoContent
		}
		next, ok := c.playlist.Next(c.src.ID(), RepeatAll)
		if !ok {
			return nil
		}
		return c.handlePlay(next)
	})
}

// PreviousItem switches to the previous playlist item.
func (c *Coordinator) PreviousItem() error {
	return c.do(func() error {
		if c.playlist == nil || c.src == nil {
			return ErrNoContent
		}
		prev, ok := c.playlist.Previous(c.src.ID())
		if !ok {
			return nil
		}
		return c.handlePlay(prev)
	})
}

// SetRate changes the speech rate. An active utterance restarts at the
// current offset so the new rate takes effect immediately.
func (c *Coordinator) SetRate(rate float64) error {
	return c.do(func() error {
		if rate < 0.5 || rate > 2.0 {
			return fmt.Errorf("rate must be between 0.5 and 2.0, got %.2f", rate)
		}
		c.rate = rate
		return c.restartForSettingChange()
	})
}

// SetVoice changes the synthesis voice, restarting an active utterance.
func (c *Coordinator) SetVoice(voiceID string) error {
	return c.do(func() error {
		c.voiceID = voiceID
		return c.restartForSettingChange()
	})
}

// SetRepeatMode changes the completion behavior.
func (c *Coordinator) SetRepeatMode(mode RepeatMode) error {
	return c.do(func() error {
		c.repeat = mode
		return nil
	})
}

// State returns the current playback state.
func (c *Coordinator) State() StateType {
	var s StateType
	_ = c.do(func() error { s = c.sm.Current(); return nil })
	return s
}

// Position returns the current playback position.
func (c *Coordinator) Position() Position {
	var p Position
	_ = c.do(func() error { p = c.pos; return nil })
	return p
}

// CurrentItem returns the id of the loaded item, or "" when idle.
func (c *Coordinator) CurrentItem() string {
	var id string
	_ = c.do(func() error {
		if c.src != nil {
			id = c.src.ID()
		}
		return nil
	})
	return id
}

// loop is the coordinator's single serialization point.
func (c *Coordinator) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case cmd := <-c.cmds:
			cmd.reply <- cmd.run()
		case ev, ok := <-c.engine.Events():
			if !ok {
				return
			}
			c.handleEvent(ev)
		case <-ticker.C:
			c.handleTick()
		case <-c.watchdogC:
			c.handleWatchdog()
		}
	}
}

// --- command handlers (loop goroutine only) ---

func (c *Coordinator) handlePlay(itemID string) error {
	req, err := c.loadItem(itemID)
	if err != nil {
		return err
	}

	if c.sm.IsActive() {
		// An utterance may be in flight; stop it and start the new item
		// once the engine acknowledges.
		return c.requestStart(req)
	}
	return c.applyStart(req)
}

// loadItem builds the start request for an item, restoring persisted
// progress when present and within bounds.
func (c *Coordinator) loadItem(itemID string) (*startRequest, error) {
	src, err := c.sources.Source(itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtractionFailed, itemID, err)
	}

	req := &startRequest{src: src}
	if c.store != nil {
		p, ok, err := c.store.Load(itemID)
		if err != nil {
			c.logger.Warn("could not load saved progress", "item", itemID, "err", err)
		} else if ok && p.CharOffset >= 0 && p.CharOffset < src.Len() {
			req.offset = p.CharOffset
			req.elapsed = time.Duration(p.ElapsedSeconds * float64(time.Second))
		}
	}
	return req, nil
}

// requestStart stops the in-flight utterance and defers the start until the
// engine's stopped acknowledgment. A newer request supersedes an older one
// that has not started yet, so a rapid double-seek ends with exactly one
// active session.
func (c *Coordinator) requestStart(req *startRequest) error {
	c.pending = req
	c.intent = IntentUser
	c.needReseek = false
	if !c.sm.Transition(StateTransitioning) {
		return ErrInvalidState
	}
	// The watchdog also covers a lost stop acknowledgment; a successful
	// restart re-arms it for the new utterance.
	c.waitingStart = true
	c.watchdogSession = c.session
	c.watchdogC = time.After(c.cfg.WatchdogTimeout)
	c.publish()
	if err := c.engine.Stop(); err != nil {
		c.pending = nil
		c.toIdle()
		return fmt.Errorf("engine stop failed: %w", err)
	}
	return nil
}

// applyStart installs the request's source and begins speaking. Only called
// when no utterance can be in flight.
func (c *Coordinator) applyStart(req *startRequest) error {
	c.src = req.src
	c.elapsed = req.elapsed
	c.sinceSave = 0
	c.pending = nil
	c.needReseek = false
	c.intent = IntentNone
	if !c.sm.Transition(StateTransitioning) {
		return ErrInvalidState
	}
	return c.startUtterance(req.offset)
}

// startUtterance submits the text from offset to the engine under a fresh
// session id.
func (c *Coordinator) startUtterance(offset int) error {
	offset = c.src.ClampOffset(offset)
	text := c.src.SliceFrom(offset)
	c.pos = PositionForOffset(c.src, offset)

	if strings.TrimSpace(text) == "" {
		// Empty content is a no-op, not an error returned to the caller.
		c.logger.Warn("nothing to speak", "item", c.src.ID(), "offset", offset, "err", ErrEmptyContent)
		c.toIdle()
		return nil
	}

	n := c.src.Len()
	c.shortTail = offset > int(c.cfg.TailStartFraction*float64(n)) || len(text) < c.cfg.MinTailChars

	c.session++
	c.waitingStart = true
	c.watchdogSession = c.session
	c.watchdogC = time.After(c.cfg.WatchdogTimeout)

	c.logger.Debug("starting utterance",
		"item", c.src.ID(), "session", c.session, "offset", offset, "tail", c.shortTail)

	err := c.engine.Speak(SpeakRequest{
		Session:    c.session,
		Text:       text,
		VoiceID:    c.voiceID,
		Rate:       c.rate,
		BaseOffset: offset,
	})
	if err != nil {
		c.toIdle()
		return fmt.Errorf("engine speak failed: %w", err)
	}

	c.publish()
	return nil
}

func (c *Coordinator) handlePause() error {
	if !c.sm.CanPause() {
		return ErrInvalidState
	}
	if err := c.engine.Pause(); err != nil {
		return fmt.Errorf("engine pause failed: %w", err)
	}
	c.sm.Transition(StatePaused)
	c.persist(false)
	c.publish()
	c.updateNowPlaying()
	return nil
}

func (c *Coordinator) handleResume() error {
	if !c.sm.CanResume() {
		return ErrInvalidState
	}

	if c.needReseek {
		// The paused offset no longer matches the paused utterance; restart
		// from the corrected position instead of resuming.
		c.needReseek = false
		return c.requestStart(&startRequest{src: c.src, offset: c.pos.CharOffset, elapsed: c.elapsed})
	}

	if err := c.engine.Resume(); err != nil {
		return fmt.Errorf("engine resume failed: %w", err)
	}
	c.sm.Transition(StatePlaying)
	c.publish()
	c.updateNowPlaying()
	return nil
}

func (c *Coordinator) handleStop() error {
	if !c.sm.IsActive() {
		return nil
	}
	c.intent = IntentUser
	c.pending = nil
	c.persist(false)
	if err := c.engine.Stop(); err != nil {
		c.logger.Warn("engine stop failed", "err", err)
	}
	c.toIdle()
	return nil
}

func (c *Coordinator) handleJump(index int) error {
	if c.src == nil {
		return ErrNoContent
	}
	if index < 0 || index >= c.src.ChapterCount() {
		return fmt.Errorf("%w: %d", ErrInvalidChapter, index)
	}

	offset, err := ChapterStartOffset(c.src, index)
	if err != nil {
		return err
	}

	if c.sm.Current() == StatePaused {
		// Move the position only; playback stays paused and resume will
		// reseek.
		c.pos = PositionForOffset(c.src, offset)
		c.needReseek = true
		c.publish()
		return nil
	}

	return c.requestStart(&startRequest{src: c.src, offset: offset, elapsed: c.elapsed})
}

// restartForSettingChange restarts an active utterance so a rate or voice
// change takes effect. Idle and paused sessions pick the change up on the
// next start.
func (c *Coordinator) restartForSettingChange() error {
	switch c.sm.Current() {
	case StatePlaying, StateTransitioning:
		return c.requestStart(&startRequest{src: c.src, offset: c.pos.CharOffset, elapsed: c.elapsed})
	case StatePaused:
		c.needReseek = true
		return nil
	default:
		return nil
	}
}

// --- engine event handlers (loop goroutine only) ---

func (c *Coordinator) handleEvent(ev Event) {
	if ev.Kind == EventStopped {
		// Stop acknowledgments are not utterance-scoped: the engine tags
		// them with whatever session last spoke, which can trail the
		// coordinator's counter after a natural completion. Filtering them
		// would drop the ack that releases a pending start.
		c.handleStopped()
		return
	}

	if ev.Session != c.session {
		// Superseded utterance; its lifecycle is no longer ours.
		c.logger.Debug("discarding stale engine event",
			"kind", ev.Kind, "session", ev.Session, "active", c.session)
		return
	}

	switch ev.Kind {
	case EventStarted:
		c.waitingStart = false
		c.watchdogC = nil
		c.advancing = false
		c.sm.Transition(StatePlaying)
		c.publish()
		c.updateNowPlaying()

	case EventProgress:
		if c.sm.Current() != StatePlaying {
			return
		}
		// Progress never moves backwards within a session.
		if ev.End > c.pos.CharOffset {
			c.pos = PositionForOffset(c.src, ev.End)
			c.publish()
			c.updateNowPlaying()
		}

	case EventFinished:
		c.handleFinished()

	case EventCancelled:
		// Expected teardown of a stop or seek; the stopped acknowledgment
		// drives what happens next.

	case EventStopped:
		c.handleStopped()
	}
}

func (c *Coordinator) handleFinished() {
	c.waitingStart = false
	c.watchdogC = nil

	if c.shortTail {
		c.logger.Debug("tail utterance completed; suppressing completion signaling",
			"item", c.src.ID(), "session", c.session)
	}

	switch c.repeat {
	case RepeatOne:
		// Replaying a document shorter than the tail threshold would make
		// every pass a tail pass; stop instead of looping.
		if c.src.Len() < c.cfg.MinTailChars {
			c.completeItem()
			return
		}
		c.sm.Transition(StateTransitioning)
		c.elapsed = 0
		c.sinceSave = 0
		if err := c.startUtterance(0); err != nil {
			c.logger.Error("replay failed", "item", c.src.ID(), "err", err)
		}

	case RepeatAll:
		c.advanceToNext()

	default:
		c.completeItem()
	}
}

// advanceToNext asks the playlist for the next item. Duplicate requests
// while one is in flight collapse into a single transition.
func (c *Coordinator) advanceToNext() {
	if c.advancing {
		c.logger.Debug("advance already in flight; ignoring duplicate")
		return
	}
	if c.playlist == nil {
		c.completeItem()
		return
	}

	next, ok := c.playlist.Next(c.src.ID(), c.repeat)
	if !ok {
		c.completeItem()
		return
	}

	c.advancing = true
	req, err := c.loadItem(next)
	if err != nil {
		c.advancing = false
		c.logger.Error("cannot advance to next item", "item", next, "err", err)
		c.toIdle()
		return
	}
	if err := c.applyStart(req); err != nil {
		c.advancing = false
		c.logger.Error("cannot start next item", "item", next, "err", err)
		c.toIdle()
	}
}

// completeItem finishes playback of the current item: progress is cleared
// (the item was fully heard) and the coordinator returns to idle.
func (c *Coordinator) completeItem() {
	if c.store != nil && c.src != nil {
		if err := c.store.Clear(c.src.ID()); err != nil {
			c.logger.Warn("could not clear saved progress", "item", c.src.ID(), "err", err)
		}
	}
	// Bump the session so any trailing events from the finished utterance
	// are discarded as stale.
	c.session++
	c.toIdle()
}

func (c *Coordinator) handleStopped() {
	if c.pending != nil {
		req := c.pending
		if err := c.applyStart(req); err != nil {
			c.logger.Error("deferred start failed", "err", err)
			c.toIdle()
		}
	}
}

func (c *Coordinator) handleWatchdog() {
	c.watchdogC = nil
	if !c.waitingStart || c.watchdogSession != c.session {
		return
	}
	// The engine never confirmed the utterance started. There is no error
	// channel to consult, so treat the session as dead.
	c.logger.Error("engine did not start speaking within timeout",
		"item", c.src.ID(), "session", c.session, "timeout", c.cfg.WatchdogTimeout)
	c.persist(false)
	c.toIdle()
}

func (c *Coordinator) handleTick() {
	if c.sm.Current() != StatePlaying {
		return
	}
	c.elapsed += c.cfg.TickInterval
	c.sinceSave += c.cfg.TickInterval
	if c.sinceSave >= c.cfg.SaveInterval {
		c.persist(true)
		c.sinceSave = 0
	}
	c.updateNowPlaying()
}

// --- shared helpers (loop goroutine only) ---

func (c *Coordinator) toIdle() {
	c.sm.Transition(StateIdle)
	c.pending = nil
	c.advancing = false
	c.waitingStart = false
	c.watchdogC = nil
	c.intent = IntentNone
	c.publish()
	c.nowPlaying.Clear()
}

func (c *Coordinator) persist(wasPlaying bool) {
	if c.store == nil || c.src == nil {
		return
	}
	p := Progress{
		CharOffset:     c.pos.CharOffset,
		Fraction:       c.pos.GlobalFraction,
		ElapsedSeconds: c.elapsed.Seconds(),
		WasPlaying:     wasPlaying,
	}
	if err := c.store.Save(c.src.ID(), p); err != nil {
		c.logger.Warn("could not save progress", "item", c.src.ID(), "err", err)
	}
}

func (c *Coordinator) publish() {
	if c.global == nil {
		return
	}
	s := Snapshot{
		State:   c.sm.Current(),
		Playing: c.sm.Current() == StatePlaying,
		Rate:    c.rate,
	}
	if c.src != nil {
		s.ItemID = c.src.ID()
		s.Title = c.src.Title()
		s.Position = c.pos
		if ch, err := c.src.ChapterAt(c.pos.ChapterIndex); err == nil {
			s.Chapter = ch.Title
		}
	}
	c.global.publish(s)
}

func (c *Coordinator) updateNowPlaying() {
	if c.src == nil {
		return
	}
	total := time.Duration(float64(c.src.Len()) / (c.cfg.CharsPerSecond * c.rate) * float64(time.Second))
	info := NowPlayingInfo{
		ItemID:   c.src.ID(),
		Title:    c.src.Title(),
		Duration: total,
		Elapsed:  c.elapsed,
		Rate:     c.rate,
		Playing:  c.sm.Current() == StatePlaying,
	}
	if ch, err := c.src.ChapterAt(c.pos.ChapterIndex); err == nil {
		info.Chapter = ch.Title
	}
	c.nowPlaying.Update(info)
}
