package ui

import "github.com/lectern-tts/lectern/playback"

// snapshotMsg carries a fresh playback snapshot from the coordinator.
type snapshotMsg playback.Snapshot

// docChangedMsg reports that an item's file was rewritten on disk.
type docChangedMsg string

// errMsg surfaces a player error in the status bar.
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }
