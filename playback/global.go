package playback

import "sync"

// Snapshot is the published process-wide playback state consumed by UI
// surfaces. The coordinator is its single writer; everyone else reads.
type Snapshot struct {
	ItemID   string
	Title    string
	State    StateType
	Playing  bool
	Position Position
	Chapter  string
	Rate     float64
}

// GlobalState is a published mirror of the coordinator's authoritative
// state. UI surfaces subscribe for snapshots instead of keeping local flags
// that would need reconciliation.
type GlobalState struct {
	mu   sync.RWMutex
	cur  Snapshot
	subs []chan Snapshot
}

// NewGlobalState creates an empty global state mirror.
func NewGlobalState() *GlobalState {
	return &GlobalState{}
}

// Current returns the latest published snapshot.
func (g *GlobalState) Current() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cur
}

// Subscribe returns a channel that receives every published snapshot. Slow
// subscribers miss intermediate snapshots rather than blocking the
// coordinator; the latest state is always available via Current.
func (g *GlobalState) Subscribe() <-chan Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch := make(chan Snapshot, 16)
	g.subs = append(g.subs, ch)
	return ch
}

// publish replaces the current snapshot and notifies subscribers. Only the
// coordinator calls this.
func (g *GlobalState) publish(s Snapshot) {
	g.mu.Lock()
	g.cur = s
	subs := g.subs
	g.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- s:
		default:
			// Subscriber is behind; drop rather than block the coordinator.
		}
	}
}
