// Package vterm is the in-memory terminal screen: a cell matrix with
// scrollback, cursor state, and the VT/ANSI parser that mutates it. It is
// the grid half of the grid/event-loop pair; all concurrency control lives
// in the caller (internal/grid), so nothing here locks.
package vterm

import "time"

// MaxScrollback bounds how many lines of history are retained.
const MaxScrollback = 10000

// ResponseWriter receives bytes the terminal must send back to the pty in
// answer to a query sequence (DSR, DA, DECRQM).
type ResponseWriter func([]byte)

// VTerm is a virtual terminal screen with scrollback.
type VTerm struct {
	// Screen is the visible cell matrix, Scrollback the history above it
	// (oldest line at index 0).
	Screen     [][]Cell
	Scrollback [][]Cell

	// CursorX and CursorY are 0-indexed.
	CursorX, CursorY int

	Width, Height int

	// ViewOffset is how many lines the view is scrolled up into history;
	// 0 means live.
	ViewOffset int

	// Alternate screen (full-screen applications). The main screen is
	// parked in mainScreenBuf while AltScreen is set.
	AltScreen     bool
	mainScreenBuf [][]Cell
	mainCursorX   int
	mainCursorY   int

	// DECSTBM scroll region and DECOM origin mode.
	ScrollTop    int
	ScrollBottom int
	OriginMode   bool

	// Style applied to newly written cells.
	CurrentStyle Style

	// DECSC/DECRC saved state.
	SavedCursorX int
	SavedCursorY int
	SavedStyle   Style

	// CursorHidden tracks DECTCEM (private mode 25).
	CursorHidden bool

	parser *Parser

	responseWriter ResponseWriter

	// Selection over the combined scrollback+screen buffer, in absolute
	// line coordinates (0 = first scrollback line).
	selActive               bool
	selStartX, selStartLine int
	selEndX, selEndLine     int
	selRect                 bool

	// Synchronized output (DEC private mode 2026).
	syncActive        bool
	syncScreen        [][]Cell
	syncScrollbackLen int
	syncDeferTrim     bool
	syncDeadline      time.Time
	syncBytesConsumed int

	// version increments whenever visible content or the cursor changes;
	// renderers compare it to skip identical frames.
	version uint64
}

// New creates a VTerm of the given dimensions.
func New(width, height int) *VTerm {
	v := &VTerm{
		Width:        width,
		Height:       height,
		ScrollBottom: height,
	}
	v.Screen = v.makeScreen(width, height)
	v.Scrollback = make([][]Cell, 0, MaxScrollback)
	v.parser = NewParser(v)
	return v
}

func (v *VTerm) makeScreen(width, height int) [][]Cell {
	screen := make([][]Cell, height)
	for i := range screen {
		screen[i] = blankLine(width)
	}
	return screen
}

// Version returns the change counter for render caching.
func (v *VTerm) Version() uint64 {
	return v.version
}

// touch records a visible change.
func (v *VTerm) touch() {
	v.version++
}

func (v *VTerm) touchIfCursorMoved(prevX, prevY int) {
	if v.CursorX != prevX || v.CursorY != prevY {
		v.touch()
	}
}

// Write feeds pty output to the parser byte by byte, counting how many of
// the bytes were consumed while a synchronized-update window was open so
// the caller can decide whether this batch warrants a redraw.
func (v *VTerm) Write(data []byte) {
	for _, b := range data {
		if v.syncActive {
			v.syncBytesConsumed++
		}
		v.parser.parseByte(b)
	}
}

// SyncBytesConsumed returns the count accumulated by Write since the last
// ResetSyncBytesConsumed.
func (v *VTerm) SyncBytesConsumed() int {
	return v.syncBytesConsumed
}

// ResetSyncBytesConsumed zeroes the counter, once per pty read cycle.
func (v *VTerm) ResetSyncBytesConsumed() {
	v.syncBytesConsumed = 0
}

// SetResponseWriter installs the callback for terminal query responses.
func (v *VTerm) SetResponseWriter(w ResponseWriter) {
	v.responseWriter = w
}

func (v *VTerm) respond(data []byte) {
	if v.responseWriter != nil {
		v.responseWriter(data)
	}
}

// Resize changes the screen dimensions, moving lines between the screen
// and scrollback so content is preserved the way a native terminal does.
func (v *VTerm) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if width == v.Width && height == v.Height {
		return
	}
	oldHeight := v.Height

	// Shrinking pushes the top rows into history.
	if height < oldHeight && !v.AltScreen {
		overflow := oldHeight - height
		moved := 0
		for i := 0; i < overflow && len(v.Screen) > 0; i++ {
			v.Scrollback = append(v.Scrollback, v.Screen[0])
			v.Screen = v.Screen[1:]
			moved++
		}
		if moved > 0 && v.ViewOffset > 0 {
			v.ViewOffset += moved
			if v.ViewOffset > len(v.Scrollback) {
				v.ViewOffset = len(v.Scrollback)
			}
		}
		v.trimScrollback()
	}

	// Growing pulls history back onto the screen.
	if height > oldHeight && !v.AltScreen && v.ViewOffset == 0 {
		restore := height - oldHeight
		if restore > len(v.Scrollback) {
			restore = len(v.Scrollback)
		}
		if restore > 0 {
			split := len(v.Scrollback) - restore
			v.Screen = append(append([][]Cell{}, v.Scrollback[split:]...), v.Screen...)
			v.Scrollback = v.Scrollback[:split]
			v.CursorY += restore
		}
	}

	v.Screen = resizeBuffer(v.Screen, width, height)
	v.Width = width
	v.Height = height

	if v.ScrollBottom > height || v.ScrollBottom == 0 {
		v.ScrollBottom = height
	}
	if v.ScrollTop >= v.ScrollBottom {
		v.ScrollTop = 0
	}

	if v.CursorX >= width {
		v.CursorX = width - 1
	}
	if v.CursorY >= height {
		v.CursorY = height - 1
	}
	v.clampCursor()

	if v.mainScreenBuf != nil {
		v.mainScreenBuf = resizeBuffer(v.mainScreenBuf, width, height)
	}
	if v.syncScreen != nil {
		v.syncScreen = resizeBuffer(v.syncScreen, width, height)
	}
	v.touch()
}

// resizeBuffer reshapes a cell buffer to height rows of at least width
// cells. Rows wider than width keep their extra cells so narrowing and
// re-widening round-trips content.
func resizeBuffer(buf [][]Cell, width, height int) [][]Cell {
	out := make([][]Cell, height)
	for y := range out {
		switch {
		case y < len(buf) && len(buf[y]) >= width:
			out[y] = buf[y]
		case y < len(buf) && len(buf[y]) > 0:
			out[y] = blankLine(width)
			copy(out[y], buf[y])
		default:
			out[y] = blankLine(width)
		}
	}
	return out
}

// trimScrollback drops history beyond MaxScrollback. While a synchronized
// update is open the trim is deferred so the snapshot's line numbering
// stays valid.
func (v *VTerm) trimScrollback() {
	if len(v.Scrollback) > MaxScrollback {
		if v.syncActive {
			v.syncDeferTrim = true
			return
		}
		trimmed := len(v.Scrollback) - MaxScrollback
		v.Scrollback = v.Scrollback[trimmed:]
		v.shiftSelectionAfterTrim(trimmed)
	}
	if v.ViewOffset > len(v.Scrollback) {
		v.ViewOffset = len(v.Scrollback)
	}
}
