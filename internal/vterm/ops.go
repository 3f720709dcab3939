package vterm

import "github.com/mattn/go-runewidth"

// putChar writes one glyph at the cursor, handling auto-wrap, wide-glyph
// placement, and overwrite of existing wide glyphs.
func (v *VTerm) putChar(r rune) {
	width := runewidth.RuneWidth(r)

	// Zero-width (combining) runes do not occupy a cell and do not move
	// the cursor. Cell stores a single rune, so the mark is dropped
	// rather than attached to the previous glyph.
	if width == 0 {
		return
	}

	// A wide glyph that would straddle the last column wraps first,
	// leaving a plain space behind.
	if width == 2 && v.CursorX == v.Width-1 {
		if v.CursorY >= 0 && v.CursorY < len(v.Screen) {
			v.Screen[v.CursorY][v.CursorX] = Cell{Rune: ' ', Style: v.CurrentStyle, Width: 1}
		}
		v.wrapCursor()
	}

	if v.CursorX >= v.Width {
		v.wrapCursor()
	}

	if v.CursorY >= 0 && v.CursorY < len(v.Screen) &&
		v.CursorX >= 0 && v.CursorX < len(v.Screen[v.CursorY]) {
		row := v.Screen[v.CursorY]

		// Overwriting either half of an existing wide glyph invalidates
		// the other half.
		if row[v.CursorX].Width == 0 && v.CursorX > 0 {
			row[v.CursorX-1] = blankCell()
		}
		if row[v.CursorX].Width == 2 && v.CursorX+1 < v.Width {
			row[v.CursorX+1] = blankCell()
		}

		row[v.CursorX] = Cell{Rune: r, Style: v.CurrentStyle, Width: width}

		if width == 2 && v.CursorX+1 < v.Width {
			// The continuation cell may itself sit where another wide
			// glyph starts; clear that glyph's continuation too.
			if row[v.CursorX+1].Width == 2 && v.CursorX+2 < v.Width {
				row[v.CursorX+2] = blankCell()
			}
			row[v.CursorX+1] = Cell{Style: v.CurrentStyle, Width: 0}
		}
	}

	v.touch()
	v.CursorX += width
}

// wrapCursor moves to column 0 of the next line, scrolling at the region
// bottom.
func (v *VTerm) wrapCursor() {
	v.CursorX = 0
	v.CursorY++
	if v.CursorY >= v.ScrollBottom {
		v.scrollUp(1)
		v.CursorY = v.ScrollBottom - 1
	}
}

func (v *VTerm) newline() {
	prevX, prevY := v.CursorX, v.CursorY
	v.CursorY++
	if v.CursorY >= v.ScrollBottom {
		v.scrollUp(1)
		v.CursorY = v.ScrollBottom - 1
	}
	v.touchIfCursorMoved(prevX, prevY)
}

func (v *VTerm) carriageReturn() {
	prevX, prevY := v.CursorX, v.CursorY
	v.CursorX = 0
	v.touchIfCursorMoved(prevX, prevY)
}

// tab advances to the next 8-column stop without wrapping.
func (v *VTerm) tab() {
	prevX, prevY := v.CursorX, v.CursorY
	v.CursorX = (v.CursorX/8 + 1) * 8
	if v.CursorX >= v.Width {
		v.CursorX = v.Width - 1
	}
	v.touchIfCursorMoved(prevX, prevY)
}

func (v *VTerm) backspace() {
	prevX, prevY := v.CursorX, v.CursorY
	if v.CursorX > 0 {
		v.CursorX--
	}
	v.touchIfCursorMoved(prevX, prevY)
}

// eraseDisplay implements ED. Mode 3 additionally discards scrollback.
func (v *VTerm) eraseDisplay(mode int) {
	switch mode {
	case 0: // cursor to end of screen
		v.eraseLine(0)
		for y := v.CursorY + 1; y < v.Height && y < len(v.Screen); y++ {
			v.Screen[y] = blankLine(v.Width)
		}
	case 1: // start of screen to cursor
		for y := 0; y < v.CursorY && y < len(v.Screen); y++ {
			v.Screen[y] = blankLine(v.Width)
		}
		v.eraseLine(1)
	case 2, 3:
		for y := 0; y < v.Height && y < len(v.Screen); y++ {
			v.Screen[y] = blankLine(v.Width)
		}
		if mode == 3 {
			v.Scrollback = v.Scrollback[:0]
		}
	}
	v.touch()
}

// eraseLine implements EL on the cursor row.
func (v *VTerm) eraseLine(mode int) {
	if v.CursorY >= len(v.Screen) {
		return
	}
	row := v.Screen[v.CursorY]

	switch mode {
	case 0: // cursor to end
		for x := v.CursorX; x < v.Width && x < len(row); x++ {
			row[x] = blankCell()
		}
	case 1: // start to cursor
		for x := 0; x <= v.CursorX && x < v.Width && x < len(row); x++ {
			row[x] = blankCell()
		}
	case 2:
		v.Screen[v.CursorY] = blankLine(v.Width)
	}
	v.touch()
}
