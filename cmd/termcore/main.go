// Command termcore is a minimal demo front end for the PTY/parser/context
// core: it attaches the controlling terminal to context 0, forwards
// keystrokes, and redraws whenever a context's grid changes.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/sagittar-io/termcore/internal/inbound"
	"github.com/sagittar-io/termcore/internal/logging"
	"github.com/sagittar-io/termcore/internal/safego"
	"github.com/sagittar-io/termcore/internal/tabs"
)

// prefixKey is the tmux-style leader byte: Ctrl-B. The byte after it
// selects a tab command instead of being forwarded to the pty.
const prefixKey = 0x02

func main() {
	home, _ := os.UserHomeDir()
	if err := logging.Initialize(filepath.Join(home, ".termcore", "logs"), logging.LevelInfo); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not initialize logging: %v\n", err)
	}
	defer logging.Close()

	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		fmt.Fprintln(os.Stderr, "termcore: stdin is not a terminal")
		os.Exit(1)
	}

	oldState, err := term.MakeRaw(stdinFd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termcore: failed to enter raw mode: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(stdinFd, oldState)

	cols, rows := winsize(stdinFd)
	wakeupCh := make(chan uint64, 64)
	mgr, err := tabs.Start(cols, rows, tabs.DefaultCapacity, func(id uint64) {
		select {
		case wakeupCh <- id:
		default:
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "termcore: failed to start: %v\n", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	winchCh := make(chan os.Signal, 1)
	signal.Notify(winchCh, syscall.SIGWINCH)

	quit := make(chan struct{})
	inputCh := make(chan []byte, 32)
	safego.Go("stdin-reader", func() { readStdin(inputCh) })

	logging.Info("termcore started, %dx%d", cols, rows)

	fmt.Fprint(os.Stdout, ansi.EraseDisplay(2), ansi.CursorPosition(1, 1))
	var lastVersion uint64
	redraw(mgr, &lastVersion)

	// syncTicker forces a redraw even if no wakeup fires, so a
	// synchronized-update window that elapses mid-batch still refreshes
	// the visible frame (see internal/vterm.syncUpdateTimeout).
	syncTicker := time.NewTicker(50 * time.Millisecond)
	defer syncTicker.Stop()

	for {
		select {
		case <-quit:
			logging.Info("termcore shutting down")
			return
		case sig := <-sigCh:
			logging.Info("termcore received %v, shutting down", sig)
			return
		case <-winchCh:
			cols, rows = winsize(stdinFd)
			for _, ctx := range mgr.Contexts() {
				select {
				case ctx.Messages <- inbound.Resize{Cols: uint16(cols), Rows: uint16(rows)}:
				default:
				}
				ctx.Grid.Resize(cols, rows)
			}
			redraw(mgr, &lastVersion)
		case data := <-inputCh:
			handleInput(mgr, data, quit)
		case <-wakeupCh:
			redraw(mgr, &lastVersion)
		case <-syncTicker.C:
			redraw(mgr, &lastVersion)
		}
	}
}

// readStdin feeds raw terminal input to the main loop a chunk at a time.
func readStdin(out chan<- []byte) {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			out <- chunk
		}
		if err != nil {
			return
		}
	}
}

// handleInput forwards bytes to the current context, splitting out
// leader-prefixed tab commands (new, next, close, quit).
func handleInput(mgr *tabs.Manager, data []byte, quit chan struct{}) {
	for i := 0; i < len(data); i++ {
		if data[i] == prefixKey && i+1 < len(data) {
			switch data[i+1] {
			case 'c':
				if _, err := mgr.AddContext(true, true); err != nil {
					logging.Warn("termcore: add_context failed: %v", err)
				}
				i++
				continue
			case 'n':
				mgr.SwitchToNext()
				i++
				continue
			case 'w':
				mgr.CloseContext(mgr.CurrentID())
				i++
				continue
			case 'q':
				close(quit)
				return
			case '[', ']':
				if ctx := mgr.Current(); ctx != nil {
					delta := 5
					if data[i+1] == ']' {
						delta = -5
					}
					ctx.Grid.Lock()
					ctx.Grid.VT.ScrollView(delta)
					ctx.Grid.Unlock()
				}
				i++
				continue
			}
		}

		ctx := mgr.Current()
		if ctx == nil {
			continue
		}
		// Typing always snaps back to the live screen.
		ctx.Grid.Lock()
		ctx.Grid.VT.ScrollViewToBottom()
		ctx.Grid.Unlock()
		select {
		case ctx.Messages <- inbound.Input{Data: data[i : i+1]}:
		default:
		}
	}
}

// redraw repaints the current context's grid if its version changed since
// the last frame.
func redraw(mgr *tabs.Manager, lastVersion *uint64) {
	ctx := mgr.Current()
	if ctx == nil {
		return
	}

	ctx.Grid.Lock()
	version := ctx.Grid.VT.Version()
	if version == *lastVersion {
		ctx.Grid.Unlock()
		return
	}
	frame := ctx.Grid.VT.Render()
	*lastVersion = version
	ctx.Grid.Unlock()

	var out strings.Builder
	out.WriteString(ansi.CursorPosition(1, 1))
	out.WriteString(ansi.EraseDisplay(2))
	out.WriteString(frame)
	os.Stdout.WriteString(out.String())
}

// winsize reads the attaching terminal's current window size so the first
// context starts sized to the real terminal rather than a hardcoded
// default.
func winsize(fd int) (cols, rows int) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 {
		return 80, 24
	}
	return int(ws.Col), int(ws.Row)
}
