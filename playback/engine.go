package playback

// EventKind identifies the kind of engine event.
type EventKind int

const (
	// EventStarted means the engine began producing audio for the utterance.
	EventStarted EventKind = iota
	// EventProgress reports the text range the engine is currently speaking.
	EventProgress
	// EventFinished means the utterance ran to its natural end.
	EventFinished
	// EventCancelled means the utterance was interrupted by a stop.
	EventCancelled
	// EventStopped acknowledges that the engine has fully torn down after a
	// stop and a new Speak call is safe. This replaces guessing with fixed
	// settle delays.
	EventStopped
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventFinished:
		return "finished"
	case EventCancelled:
		return "cancelled"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event is an asynchronous notification from the speech engine. Every event
// carries the session id of the Speak call it belongs to; the coordinator
// discards utterance events whose session no longer matches the active one.
// EventStopped is exempt: a stop acknowledgment belongs to the Stop call, not
// to an utterance, and its Session is merely the last session that spoke.
type Event struct {
	Kind    EventKind
	Session uint64

	// Start and End are absolute character offsets into the full TextSource
	// for EventProgress. The adapter translates utterance-relative ranges by
	// adding the BaseOffset the utterance started at.
	Start int
	End   int
}

// SpeakRequest describes one utterance submission to the engine.
type SpeakRequest struct {
	// Session is the coordinator-assigned monotonically increasing id for
	// this utterance lifecycle. The engine must tag all resulting events
	// with it.
	Session uint64

	// Text is the utterance text. Engines treat empty text as a no-op.
	Text string

	// VoiceID selects the synthesis voice.
	VoiceID string

	// Rate is the speech rate multiplier (1.0 = normal).
	Rate float64

	// BaseOffset is the absolute offset within the full text at which this
	// utterance begins, used to translate progress ranges.
	BaseOffset int
}

// Engine wraps a speech-synthesis backend. Control calls are fire-and-forget
// requests; their effects are observed asynchronously on Events. The engine
// instance is exclusively owned by one coordinator, which is the only caller
// permitted to invoke its control methods.
type Engine interface {
	// Speak begins asynchronous synthesis of the request. It must return
	// immediately and must be a no-op for empty text.
	Speak(req SpeakRequest) error

	// Pause asks the engine to hold its position.
	Pause() error

	// Resume continues a paused utterance.
	Resume() error

	// Stop interrupts the in-flight utterance. The engine emits
	// EventCancelled for the interrupted utterance followed by EventStopped
	// once teardown is complete. Stop with nothing in flight still emits
	// EventStopped.
	Stop() error

	// Events returns the engine's event stream. Events for a given
	// utterance are delivered in started, progress*, (finished|cancelled)
	// order.
	Events() <-chan Event

	// Close releases engine resources. No events are delivered afterwards.
	Close() error
}
