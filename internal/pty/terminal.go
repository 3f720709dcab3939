package pty

import (
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/sagittar-io/termcore/internal/logging"
	"github.com/sagittar-io/termcore/internal/process"
	"github.com/sagittar-io/termcore/internal/safego"
)

// terminalCloseTimeout is how long Close waits for cmd.Wait after SIGTERM/SIGKILL
// before escalating to a direct SIGKILL.
const terminalCloseTimeout = 5 * time.Second

// Terminal wraps a PTY with an associated command
type Terminal struct {
	mu      sync.Mutex
	ptyFile *os.File
	cmd     *exec.Cmd
	closed  bool

	exitCh chan struct{}
}

// Spawn creates a new terminal by starting shell directly (no intervening
// "sh -c" wrapper), sized to cols x rows. This is the entry point used by
// the context manager, matching a plain create_pty(shell, cols, rows) call:
// shell is expected to be an interactive program such as a login shell.
func Spawn(shell string, cols, rows uint16) (*Terminal, error) {
	cmd := exec.Command(shell)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.SysProcAttr = &syscall.SysProcAttr{}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, err
	}

	return newTerminal(ptmx, cmd), nil
}

func newTerminal(ptmx *os.File, cmd *exec.Cmd) *Terminal {
	t := &Terminal{
		ptyFile: ptmx,
		cmd:     cmd,
		exitCh:  make(chan struct{}),
	}
	safego.Go("pty-waiter", func() {
		_ = cmd.Wait()
		close(t.exitCh)
	})
	return t
}

// WaitExit returns a channel that is closed once the child process has
// exited. Safe to select on from multiple goroutines; closing is a
// one-time event backed by a single cmd.Wait() call.
func (t *Terminal) WaitExit() <-chan struct{} {
	return t.exitCh
}

// Resize sets both the character grid size and the pixel dimensions of the
// pty, matching the pty.resize(cols, rows, px_w, px_h) contract.
func (t *Terminal) Resize(cols, rows, pxWidth, pxHeight uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.ptyFile == nil {
		return nil
	}

	return pty.Setsize(t.ptyFile, &pty.Winsize{
		Rows: rows,
		Cols: cols,
		X:    pxWidth,
		Y:    pxHeight,
	})
}

// Write sends input to the terminal
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	closed := t.closed
	ptyFile := t.ptyFile
	t.mu.Unlock()

	if closed || ptyFile == nil {
		return 0, io.ErrClosedPipe
	}

	return ptyFile.Write(p)
}

// Read reads output from the terminal
// Note: This does NOT hold the mutex during the blocking read to avoid deadlock
func (t *Terminal) Read(p []byte) (int, error) {
	t.mu.Lock()
	closed := t.closed
	ptyFile := t.ptyFile
	t.mu.Unlock()

	if closed || ptyFile == nil {
		return 0, io.EOF
	}

	return ptyFile.Read(p)
}

// SendInterrupt sends Ctrl+C to the terminal
func (t *Terminal) SendInterrupt() error {
	_, err := t.Write([]byte{0x03})
	return err
}

// Close closes the terminal
func (t *Terminal) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}

	t.closed = true
	ptyFile := t.ptyFile
	cmd := t.cmd
	t.ptyFile = nil
	t.cmd = nil
	t.mu.Unlock()

	if ptyFile != nil {
		_ = ptyFile.Close()
	}

	if cmd != nil {
		proc := cmd.Process
		if proc != nil {
			leaderPID := proc.Pid
			_ = process.KillProcessGroup(leaderPID, process.KillOptions{})
			// Wait for the existing waiter goroutine (started at construction)
			// to observe exit, escalating to SIGKILL if it takes too long.
			done := t.exitCh
			select {
			case <-done:
				// Process exited cleanly.
			case <-time.After(terminalCloseTimeout):
				logging.Warn("pty close: pid %d survived SIGTERM, forcing SIGKILL", leaderPID)
				_ = process.ForceKillProcess(leaderPID)
				<-done
			}
		} else {
			_ = cmd.Wait()
		}
	}

	return nil
}

// Running returns whether the terminal is still running
func (t *Terminal) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.cmd == nil {
		return false
	}

	// Check if process is still running
	return t.cmd.ProcessState == nil
}

// IsClosed returns whether the terminal has been closed
func (t *Terminal) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
