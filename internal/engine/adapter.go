package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lectern-tts/lectern/internal/audio"
	"github.com/lectern-tts/lectern/internal/cache"
	"github.com/lectern-tts/lectern/playback"
)

const eventBuffer = 128

// Adapter drives a Synthesizer and an audio.Player as a playback.Engine.
// Each Speak runs its own goroutine: segment the text, synthesize (or pull
// from the clip cache), play, and report per-segment progress. Stop cancels
// that goroutine and acknowledges with a stopped event once it has exited.
type Adapter struct {
	synth  Synthesizer
	player audio.Player
	clips  cache.Store
	logger *log.Logger

	events chan playback.Event

	mu          sync.Mutex
	cancel      context.CancelFunc
	running     sync.WaitGroup
	lastSession uint64
	closed      bool
}

// AdapterOptions configures the adapter. Synth and Player are required;
// Clips may be nil to disable caching.
type AdapterOptions struct {
	Synth  Synthesizer
	Player audio.Player
	Clips  cache.Store
	Logger *log.Logger
}

// NewAdapter wires the synthesis pipeline together.
func NewAdapter(opts AdapterOptions) (*Adapter, error) {
	if opts.Synth == nil {
		return nil, errors.New("engine: adapter requires a synthesizer")
	}
	if opts.Player == nil {
		return nil, errors.New("engine: adapter requires a player")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{
		synth:  opts.Synth,
		player: opts.Player,
		clips:  opts.Clips,
		logger: logger.WithPrefix("engine"),
		events: make(chan playback.Event, eventBuffer),
	}, nil
}

func (a *Adapter) Events() <-chan playback.Event { return a.events }

// Speak starts synthesis and playback of the request. Any utterance still
// running is cancelled first without a cancelled event of its own; callers
// stop explicitly when they care about the acknowledgment.
func (a *Adapter) Speak(req playback.SpeakRequest) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return errors.New("engine: adapter closed")
	}
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.lastSession = req.Session
	a.running.Add(1)
	a.mu.Unlock()

	go a.run(ctx, req)
	return nil
}

// run is the per-utterance pipeline.
func (a *Adapter) run(ctx context.Context, req playback.SpeakRequest) {
	defer a.running.Done()

	segs := SplitSegments(req.Text)
	if len(segs) == 0 {
		// Nothing speakable; report an immediate start and finish so the
		// caller's lifecycle still closes.
		a.emit(playback.Event{Kind: playback.EventStarted, Session: req.Session})
		a.emit(playback.Event{Kind: playback.EventFinished, Session: req.Session})
		return
	}

	a.emit(playback.Event{Kind: playback.EventStarted, Session: req.Session})

	for _, seg := range segs {
		if ctx.Err() != nil {
			a.finishCancelled(req.Session)
			return
		}

		pcm, err := a.clip(ctx, seg.Text, req.VoiceID, req.Rate)
		if err != nil {
			if ctx.Err() != nil {
				a.finishCancelled(req.Session)
				return
			}
			a.logger.Error("segment synthesis failed, skipping",
				"session", req.Session, "chars", len(seg.Text), "err", err)
			continue
		}

		done, err := a.player.Play(pcm)
		if err != nil {
			a.logger.Error("segment playback failed, skipping",
				"session", req.Session, "err", err)
			continue
		}

		select {
		case <-done:
			a.emit(playback.Event{
				Kind:    playback.EventProgress,
				Session: req.Session,
				Start:   req.BaseOffset + seg.Start,
				End:     req.BaseOffset + seg.End,
			})
		case <-ctx.Done():
			_ = a.player.Stop()
			a.finishCancelled(req.Session)
			return
		}
	}

	a.emit(playback.Event{Kind: playback.EventFinished, Session: req.Session})
}

func (a *Adapter) finishCancelled(session uint64) {
	a.emit(playback.Event{Kind: playback.EventCancelled, Session: session})
}

// clip returns PCM for the segment, consulting the cache first.
func (a *Adapter) clip(ctx context.Context, text, voiceID string, rate float64) ([]byte, error) {
	var key string
	if a.clips != nil {
		key = cache.Key(text, voiceID, rate)
		if pcm, err := a.clips.Get(key); err == nil {
			return pcm, nil
		}
	}

	pcm, err := a.synth.Synthesize(ctx, text, voiceID, rate)
	if err != nil {
		return nil, err
	}

	if a.clips != nil {
		if err := a.clips.Put(key, pcm); err != nil && !errors.Is(err, cache.ErrTooLarge) {
			a.logger.Warn("could not cache clip", "err", err)
		}
	}
	return pcm, nil
}

func (a *Adapter) Pause() error { return a.player.Pause() }

func (a *Adapter) Resume() error { return a.player.Resume() }

// Stop cancels the running utterance, waits for its cancelled event, and
// then acknowledges with a stopped event. With nothing in flight the
// stopped event is sent alone.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	session := a.lastSession
	a.mu.Unlock()

	a.running.Wait()
	a.emit(playback.Event{Kind: playback.EventStopped, Session: session})
	return nil
}

// emit delivers an event without ever blocking the pipeline; the buffer is
// generous and the consumer drains continuously, so drops indicate a stuck
// consumer rather than normal load.
func (a *Adapter) emit(ev playback.Event) {
	select {
	case a.events <- ev:
	default:
		a.logger.Warn("event buffer full, dropping", "kind", ev.Kind, "session", ev.Session)
	}
}

// Close stops everything and releases the synthesizer and player.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()

	a.running.Wait()

	err := a.player.Close()
	if serr := a.synth.Close(); err == nil {
		err = serr
	}
	if a.clips != nil {
		if cerr := a.clips.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ playback.Engine = (*Adapter)(nil)
