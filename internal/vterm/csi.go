package vterm

import (
	"strconv"
	"strings"
)

// parseCSI consumes the byte immediately after ESC [.
func (p *Parser) parseCSI(b byte) {
	switch {
	case b >= '0' && b <= '9':
		p.paramBuf.WriteByte(b)
		p.state = stateCSIParam
	case b == ';':
		p.flushParam()
		p.state = stateCSIParam
	case b == '?' || b == '>' || b == '!' || b == '<':
		p.prefix = b
		p.state = stateCSIParam
	case b >= 0x20 && b <= 0x2f:
		p.intermediate = b
		p.state = stateCSIParam
	case b >= 0x40 && b <= 0x7e:
		p.flushParam()
		p.dispatchCSI(b)
		p.state = stateGround
	case b == 0x1b:
		p.state = stateEscape
	}
}

// parseCSIParam consumes parameter, intermediate, and final bytes.
func (p *Parser) parseCSIParam(b byte) {
	switch {
	case b >= '0' && b <= '9':
		p.paramBuf.WriteByte(b)
	case b == ';':
		p.flushParam()
	case b == ':':
		// Sub-parameter separator, flattened by flushParam.
		p.paramBuf.WriteByte(b)
	case b >= 0x20 && b <= 0x2f:
		p.intermediate = b
	case b >= 0x40 && b <= 0x7e:
		p.flushParam()
		p.dispatchCSI(b)
		p.state = stateGround
	case b == 0x1b:
		p.state = stateEscape
	default:
		p.state = stateGround
	}
}

// flushParam converts the accumulated digit buffer into parameter values.
// Colon-separated sub-parameters ("38:2:255:128:0") flatten into the same
// list, which is how applySGR expects extended colors.
func (p *Parser) flushParam() {
	defer p.paramBuf.Reset()
	s := p.paramBuf.String()
	if s == "" {
		p.params = append(p.params, 0)
		return
	}
	for _, part := range strings.Split(s, ":") {
		val, _ := strconv.Atoi(part)
		p.params = append(p.params, val)
	}
}

// param returns the idx-th parameter, treating absent and zero values as
// def per the VT default-parameter convention.
func (p *Parser) param(idx, def int) int {
	if idx < len(p.params) && p.params[idx] != 0 {
		return p.params[idx]
	}
	return def
}

func (p *Parser) dispatchCSI(final byte) {
	vt := p.vt
	switch final {
	case 'A': // CUU
		vt.moveCursor(-p.param(0, 1), 0)
	case 'B': // CUD
		vt.moveCursor(p.param(0, 1), 0)
	case 'C': // CUF
		vt.moveCursor(0, p.param(0, 1))
	case 'D': // CUB
		vt.moveCursor(0, -p.param(0, 1))
	case 'E': // CNL
		vt.carriageReturn()
		vt.moveCursor(p.param(0, 1), 0)
	case 'F': // CPL
		vt.carriageReturn()
		vt.moveCursor(-p.param(0, 1), 0)
	case 'G': // CHA
		prevX, prevY := vt.CursorX, vt.CursorY
		vt.CursorX = p.param(0, 1) - 1
		if vt.CursorX < 0 {
			vt.CursorX = 0
		}
		if vt.CursorX >= vt.Width {
			vt.CursorX = vt.Width - 1
		}
		vt.touchIfCursorMoved(prevX, prevY)
	case 'H', 'f': // CUP / HVP
		vt.setCursorPos(p.param(0, 1), p.param(1, 1))
	case 'J': // ED
		vt.eraseDisplay(p.param(0, 0))
	case 'K': // EL
		vt.eraseLine(p.param(0, 0))
	case 'L': // IL
		vt.insertLines(p.param(0, 1))
	case 'M': // DL
		vt.deleteLines(p.param(0, 1))
	case 'P': // DCH
		vt.deleteChars(p.param(0, 1))
	case 'S': // SU
		vt.scrollUp(p.param(0, 1))
	case 'T': // SD
		vt.scrollDown(p.param(0, 1))
	case 'X': // ECH
		vt.eraseChars(p.param(0, 1))
	case '@': // ICH
		vt.insertChars(p.param(0, 1))
	case 'd': // VPA
		vt.setCursorPos(p.param(0, 1), vt.CursorX+1)
	case 'm': // SGR
		p.applySGR()
	case 'n': // DSR
		p.reportDeviceStatus()
	case 'r': // DECSTBM
		vt.setScrollRegion(p.param(0, 1), p.param(1, vt.Height))
	case 's': // SCOSC
		if p.prefix == 0 && p.intermediate == 0 {
			vt.saveCursor()
		}
	case 'u': // SCORC
		if p.prefix == 0 && p.intermediate == 0 {
			vt.restoreCursor()
		}
	case 'c': // DA
		switch p.prefix {
		case '>':
			vt.respond([]byte("\x1b[>1;10;0c"))
		case 0:
			vt.respond([]byte("\x1b[?62;22c"))
		}
	case 'h': // SM / DECSET
		p.applyPrivateModes(true)
	case 'l': // RM / DECRST
		p.applyPrivateModes(false)
	case 'p': // DECRQM
		if p.prefix == '?' && p.intermediate == '$' {
			p.reportPrivateMode()
		}
	case 't': // window ops, ignored
	}
}
