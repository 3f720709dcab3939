package vterm

import (
	"strconv"
	"strings"
)

// Render returns the visible window as a string with ANSI styling: the
// live screen at ViewOffset 0, or the corresponding slice of
// scrollback+screen when scrolled into history. While a synchronized
// update is open it reads the snapshot returned by RenderBuffers.
func (v *VTerm) Render() string {
	var buf strings.Builder
	buf.Grow(v.Width * v.Height * 2)

	screen, scrollbackLen := v.RenderBuffers()
	start := scrollbackLen + len(screen) - v.Height - v.ViewOffset
	if start < 0 {
		start = 0
	}

	styled := false
	var cur Style
	for y := 0; y < v.Height; y++ {
		var row []Cell
		if idx := start + y; idx < scrollbackLen {
			if idx < len(v.Scrollback) {
				row = v.Scrollback[idx]
			}
		} else if i := idx - scrollbackLen; i < len(screen) {
			row = screen[i]
		}

		for x := 0; x < v.Width; x++ {
			cell := blankCell()
			if x < len(row) {
				cell = row[x]
			}
			if !styled || cell.Style != cur {
				writeSGR(&buf, cell.Style)
				cur = cell.Style
				styled = true
			}
			if cell.Rune == 0 {
				buf.WriteByte(' ')
			} else {
				buf.WriteRune(cell.Rune)
			}
		}
		if y < v.Height-1 {
			buf.WriteByte('\n')
		}
	}

	buf.WriteString("\x1b[0m")
	return buf.String()
}

// writeSGR emits the full escape sequence selecting s, always starting
// from a reset so the previous style never leaks through.
func writeSGR(b *strings.Builder, s Style) {
	b.WriteString("\x1b[0")
	if s.Bold {
		b.WriteString(";1")
	}
	if s.Dim {
		b.WriteString(";2")
	}
	if s.Italic {
		b.WriteString(";3")
	}
	if s.Underline {
		b.WriteString(";4")
	}
	if s.Blink {
		b.WriteString(";5")
	}
	if s.Reverse {
		b.WriteString(";7")
	}
	if s.Hidden {
		b.WriteString(";8")
	}
	if s.Strike {
		b.WriteString(";9")
	}
	writeSGRColor(b, s.Fg, true)
	writeSGRColor(b, s.Bg, false)
	b.WriteByte('m')
}

// writeSGRColor appends the color selection codes for c, using the
// classic 30-37/90-97 range for the first 16 palette entries and the
// 38;5 / 38;2 extended forms beyond.
func writeSGRColor(b *strings.Builder, c Color, fg bool) {
	switch c.Type {
	case ColorIndexed:
		idx := c.Value
		b.WriteByte(';')
		switch {
		case idx < 8:
			base := uint32(40)
			if fg {
				base = 30
			}
			b.WriteString(strconv.FormatUint(uint64(base+idx), 10))
		case idx < 16:
			base := uint32(100)
			if fg {
				base = 90
			}
			b.WriteString(strconv.FormatUint(uint64(base+idx-8), 10))
		default:
			if fg {
				b.WriteString("38;5;")
			} else {
				b.WriteString("48;5;")
			}
			b.WriteString(strconv.FormatUint(uint64(idx), 10))
		}
	case ColorRGB:
		if fg {
			b.WriteString(";38;2;")
		} else {
			b.WriteString(";48;2;")
		}
		b.WriteString(strconv.FormatUint(uint64(c.Value>>16&0xFF), 10))
		b.WriteByte(';')
		b.WriteString(strconv.FormatUint(uint64(c.Value>>8&0xFF), 10))
		b.WriteByte(';')
		b.WriteString(strconv.FormatUint(uint64(c.Value&0xFF), 10))
	}
}
