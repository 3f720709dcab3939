package vterm

import "time"

// syncUpdateTimeout bounds how long a synchronized-update window (BSU)
// may stay open before it is force-closed, matching the common terminal
// convention for DEC private mode 2026.
const syncUpdateTimeout = 100 * time.Millisecond

// SyncActive reports whether synchronized output is currently active.
func (v *VTerm) SyncActive() bool {
	return v.syncActive
}

// SyncTimeout returns the deadline at which an open synchronized-update
// window should be force-closed, and whether a window is currently open.
func (v *VTerm) SyncTimeout() (time.Time, bool) {
	if !v.syncActive {
		return time.Time{}, false
	}
	return v.syncDeadline, true
}

// ForceEndSync closes an open synchronized-update window, e.g. because its
// deadline elapsed while no further pty input arrived. No-op if no window
// is open.
func (v *VTerm) ForceEndSync() {
	v.setSynchronizedOutput(false)
}

func (v *VTerm) setSynchronizedOutput(active bool) {
	if active == v.syncActive {
		return
	}

	if active {
		v.syncActive = true
		v.syncScreen = make([][]Cell, len(v.Screen))
		for i := range v.Screen {
			v.syncScreen[i] = cloneLine(v.Screen[i])
		}
		v.syncScrollbackLen = len(v.Scrollback)
		v.syncDeadline = time.Now().Add(syncUpdateTimeout)
		v.touch()
		return
	}

	v.syncActive = false
	v.syncScreen = nil
	v.syncScrollbackLen = 0
	v.syncDeadline = time.Time{}
	if v.syncDeferTrim {
		v.syncDeferTrim = false
		v.trimScrollback()
	}
	v.touch()
}

// RenderBuffers returns the screen and scrollback length a renderer should
// read from: the synchronized-update snapshot while one is open, so a
// redraw mid-batch never shows a half-updated frame, or the live buffers
// otherwise.
func (v *VTerm) RenderBuffers() (screen [][]Cell, scrollbackLen int) {
	if v.syncActive {
		return v.syncScreen, v.syncScrollbackLen
	}
	return v.Screen, len(v.Scrollback)
}
