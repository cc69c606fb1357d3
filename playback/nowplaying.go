package playback

import "time"

// NowPlayingInfo is the push-only payload for OS-level or UI-level transport
// surfaces (lock screen, status bar). The sink feeds nothing back into the
// coordinator; transport button presses are translated 1:1 into coordinator
// commands by the surface that owns them.
type NowPlayingInfo struct {
	ItemID   string
	Title    string
	Chapter  string
	Duration time.Duration
	Elapsed  time.Duration
	Rate     float64
	Playing  bool
}

// NowPlayingSink receives now-playing updates. Implementations must not
// block; updates are best-effort.
type NowPlayingSink interface {
	// Update pushes the current now-playing info.
	Update(info NowPlayingInfo)

	// Clear removes the now-playing display when playback ends.
	Clear()
}

// NopNowPlayingSink is a NowPlayingSink that discards updates.
type NopNowPlayingSink struct{}

// Update implements NowPlayingSink.
func (NopNowPlayingSink) Update(NowPlayingInfo) {}

// Clear implements NowPlayingSink.
func (NopNowPlayingSink) Clear() {}
