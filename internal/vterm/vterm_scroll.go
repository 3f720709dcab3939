package vterm

// viewStart returns the absolute line number of the first visible row for
// the current ViewOffset, against the buffers a renderer should read.
func (v *VTerm) viewStart() int {
	screen, scrollbackLen := v.RenderBuffers()
	start := scrollbackLen + len(screen) - v.Height - v.ViewOffset
	if start < 0 {
		start = 0
	}
	return start
}

// ScreenYToAbsoluteLine maps a visible row (0..Height-1) to an absolute
// line number, where line 0 is the oldest scrollback line.
func (v *VTerm) ScreenYToAbsoluteLine(screenY int) int {
	return v.viewStart() + screenY
}

// AbsoluteLineToScreenY maps an absolute line number to a visible row, or
// -1 when the line is scrolled out of view.
func (v *VTerm) AbsoluteLineToScreenY(absLine int) int {
	y := absLine - v.viewStart()
	if y < 0 || y >= v.Height {
		return -1
	}
	return y
}

// ScrollView moves the view by delta lines; positive scrolls up into
// history. The offset pins to [0, len(Scrollback)].
func (v *VTerm) ScrollView(delta int) {
	prev := v.ViewOffset
	v.ViewOffset = clamp(v.ViewOffset+delta, 0, len(v.Scrollback))
	if v.ViewOffset != prev {
		v.touch()
	}
}

// ScrollViewToBottom snaps back to the live screen.
func (v *VTerm) ScrollViewToBottom() {
	if v.ViewOffset != 0 {
		v.ViewOffset = 0
		v.touch()
	}
}

// IsScrolled reports whether the view shows history rather than the live
// screen.
func (v *VTerm) IsScrolled() bool {
	return v.ViewOffset > 0
}

// ScrollInfo returns the current view offset and its maximum.
func (v *VTerm) ScrollInfo() (offset, max int) {
	return v.ViewOffset, len(v.Scrollback)
}
