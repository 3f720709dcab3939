package vterm

import "fmt"

// reportDeviceStatus answers DSR queries on the response writer.
func (p *Parser) reportDeviceStatus() {
	if len(p.params) == 0 {
		return
	}
	switch p.params[0] {
	case 5: // operating status: OK
		p.vt.respond([]byte("\x1b[0n"))
	case 6: // cursor position report, 1-indexed
		p.vt.respond(fmt.Appendf(nil, "\x1b[%d;%dR", p.vt.CursorY+1, p.vt.CursorX+1))
	}
}

// applyPrivateModes handles DECSET/DECRST for the private modes this
// terminal implements; everything else is accepted and ignored.
func (p *Parser) applyPrivateModes(set bool) {
	if p.prefix != '?' {
		return
	}

	for _, mode := range p.params {
		switch mode {
		case 6: // DECOM
			p.vt.OriginMode = set
			p.vt.CursorX = 0
			p.vt.CursorY = 0
			if set {
				p.vt.CursorY = p.vt.ScrollTop
			}
			p.vt.clampCursor()
		case 25: // DECTCEM
			if hidden := !set; hidden != p.vt.CursorHidden {
				p.vt.CursorHidden = hidden
				p.vt.touch()
			}
		case 47, 1047, 1049: // alternate screen variants
			if set {
				p.vt.enterAltScreen()
			} else {
				p.vt.exitAltScreen()
			}
		case 2026: // synchronized output
			p.vt.setSynchronizedOutput(set)
		case 1, 7, 12, 2004:
			// DECCKM, DECAWM (always on), blink, bracketed paste:
			// recognized, no state kept.
		}
	}
}

// reportPrivateMode answers DECRQM with the mode's set/reset state; modes
// this terminal does not track report "not recognized".
func (p *Parser) reportPrivateMode() {
	for _, mode := range p.params {
		status := 0
		if mode == 2026 {
			status = 2
			if p.vt.syncActive {
				status = 1
			}
		}
		p.vt.respond(fmt.Appendf(nil, "\x1b[?%d;%d$y", mode, status))
	}
}
