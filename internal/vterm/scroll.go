package vterm

// scrollUp shifts the scroll region up by n lines. Lines leaving the top
// of the region are captured into scrollback unless the alternate screen
// is active.
func (v *VTerm) scrollUp(n int) {
	if n <= 0 {
		return
	}
	if region := v.ScrollBottom - v.ScrollTop; n > region {
		n = region
	}

	if !v.AltScreen {
		captured := 0
		for i := v.ScrollTop; i < v.ScrollTop+n && i < v.ScrollBottom && i < len(v.Screen); i++ {
			v.Scrollback = append(v.Scrollback, cloneLine(v.Screen[i]))
			captured++
		}
		if captured > 0 && v.ViewOffset > 0 {
			// Keep a scrolled-back view anchored on the same content.
			v.ViewOffset += captured
			if v.ViewOffset > len(v.Scrollback) {
				v.ViewOffset = len(v.Scrollback)
			}
		}
		v.trimScrollback()
	}

	for i := v.ScrollTop; i < v.ScrollBottom-n; i++ {
		if i+n < len(v.Screen) {
			v.Screen[i] = v.Screen[i+n]
		}
	}
	for i := v.ScrollBottom - n; i < v.ScrollBottom; i++ {
		if i >= 0 && i < len(v.Screen) {
			v.Screen[i] = blankLine(v.Width)
		}
	}
	v.touch()
}

// scrollDown shifts the scroll region down by n lines (reverse index);
// nothing is captured to scrollback.
func (v *VTerm) scrollDown(n int) {
	if n <= 0 {
		return
	}
	if region := v.ScrollBottom - v.ScrollTop; n > region {
		n = region
	}

	for i := v.ScrollBottom - 1; i >= v.ScrollTop+n; i-- {
		if i-n >= 0 && i < len(v.Screen) {
			v.Screen[i] = v.Screen[i-n]
		}
	}
	for i := v.ScrollTop; i < v.ScrollTop+n; i++ {
		if i >= 0 && i < len(v.Screen) {
			v.Screen[i] = blankLine(v.Width)
		}
	}
	v.touch()
}
