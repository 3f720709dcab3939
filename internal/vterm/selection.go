package vterm

import "strings"

// Selection coordinates are absolute: line 0 is the oldest scrollback
// line, and lines past len(Scrollback) index into the screen. The UI owns
// the gesture; this file only stores the range and extracts text.

// HasSelection reports whether a selection is active.
func (v *VTerm) HasSelection() bool {
	return v.selActive
}

// SetSelection stores a selection range for highlight rendering. rect
// selects a rectangular block instead of a stream span.
func (v *VTerm) SetSelection(startX, startLine, endX, endLine int, active, rect bool) {
	if v.selStartX == startX && v.selStartLine == startLine &&
		v.selEndX == endX && v.selEndLine == endLine &&
		v.selActive == active && v.selRect == rect {
		return
	}
	v.selStartX, v.selStartLine = startX, startLine
	v.selEndX, v.selEndLine = endX, endLine
	v.selActive = active
	v.selRect = rect
	v.touch()
}

// ClearSelection deactivates any selection.
func (v *VTerm) ClearSelection() {
	if !v.selActive {
		return
	}
	v.selActive = false
	v.selRect = false
	v.touch()
}

// orderSpan returns the range with start before end in reading order.
func orderSpan(sx, sl, ex, el int) (int, int, int, int) {
	if sl > el || (sl == el && sx > ex) {
		return ex, el, sx, sl
	}
	return sx, sl, ex, el
}

// IsInSelection reports whether screen coordinate (x, screenY) falls
// inside the active selection.
func (v *VTerm) IsInSelection(x, screenY int) bool {
	if !v.selActive {
		return false
	}

	absLine := v.ScreenYToAbsoluteLine(screenY)
	startX, startLine, endX, endLine := orderSpan(v.selStartX, v.selStartLine, v.selEndX, v.selEndLine)

	if absLine < startLine || absLine > endLine {
		return false
	}
	if v.selRect || startLine == endLine {
		lo, hi := startX, endX
		if lo > hi {
			lo, hi = hi, lo
		}
		return x >= lo && x <= hi
	}
	switch absLine {
	case startLine:
		return x >= startX
	case endLine:
		return x <= endX
	}
	return true
}

// shiftSelectionAfterTrim slides selection line indices down after trim
// lines were dropped from the head of scrollback, clearing the selection
// when it was trimmed away entirely.
func (v *VTerm) shiftSelectionAfterTrim(trim int) {
	if !v.selActive || trim <= 0 {
		return
	}

	v.selStartLine -= trim
	v.selEndLine -= trim

	if v.selStartLine < 0 && v.selEndLine < 0 {
		v.selActive = false
		v.selRect = false
		v.touch()
		return
	}
	if v.selStartLine < 0 {
		v.selStartLine = 0
		v.selStartX = 0
	}
	if v.selEndLine < 0 {
		v.selEndLine = 0
		v.selEndX = 0
	}
	v.touch()
}

// GetTextRange extracts the plain text of an absolute-coordinate range in
// the combined scrollback+screen buffer. Continuation cells are skipped
// so wide glyphs appear once, and trailing blanks are trimmed per line.
func (v *VTerm) GetTextRange(startX, startLine, endX, endLine int) string {
	if v == nil {
		return ""
	}
	screen, scrollbackLen := v.RenderBuffers()
	total := scrollbackLen + len(screen)
	if total == 0 {
		return ""
	}

	startX, startLine, endX, endLine = orderSpan(startX, startLine, endX, endLine)
	startLine = clamp(startLine, 0, total-1)
	endLine = clamp(endLine, 0, total-1)

	width := v.Width
	if width < 1 {
		width = 1
	}
	startX = clamp(startX, 0, width-1)
	endX = clamp(endX, 0, width-1)

	var out []string
	for line := startLine; line <= endLine; line++ {
		row := v.lineAt(screen, scrollbackLen, line)
		if row == nil {
			row = blankLine(width)
		}

		from, to := 0, len(row)-1
		if line == startLine {
			from = startX
		}
		if line == endLine {
			to = endX
		}
		if to >= len(row) {
			to = len(row) - 1
		}

		var sb strings.Builder
		for x := from; x <= to && x < len(row); x++ {
			if row[x].Width == 0 {
				continue
			}
			r := row[x].Rune
			if r == 0 {
				r = ' '
			}
			sb.WriteRune(r)
		}
		out = append(out, strings.TrimRight(sb.String(), " "))
	}
	return strings.Join(out, "\n")
}

// LineCells returns the cells of an absolute line, or nil when out of
// range.
func (v *VTerm) LineCells(line int) []Cell {
	if v == nil || line < 0 {
		return nil
	}
	screen, scrollbackLen := v.RenderBuffers()
	return v.lineAt(screen, scrollbackLen, line)
}

func (v *VTerm) lineAt(screen [][]Cell, scrollbackLen, line int) []Cell {
	if line < 0 {
		return nil
	}
	if line < scrollbackLen {
		return v.Scrollback[line]
	}
	if i := line - scrollbackLen; i < len(screen) {
		return screen[i]
	}
	return nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
