package pty

import (
	"io"
	"strings"
	"testing"
	"time"
)

// readUntil reads pty output until want appears or the deadline passes,
// returning everything read.
func readUntil(t *testing.T, term *Terminal, want string, timeout time.Duration) string {
	t.Helper()
	var out strings.Builder
	buf := make([]byte, 4096)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		n, err := term.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
			if strings.Contains(out.String(), want) {
				return out.String()
			}
		}
		if err != nil {
			break
		}
	}
	return out.String()
}

func TestSpawnRunsShellOnPty(t *testing.T) {
	term, err := Spawn("/bin/sh", 80, 24)
	if err != nil {
		t.Skipf("could not spawn /bin/sh on a pty: %v", err)
	}
	defer term.Close()

	if _, err := term.Write([]byte("echo hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if out := readUntil(t, term, "hello", 2*time.Second); !strings.Contains(out, "hello") {
		t.Fatalf("output = %q, want it to contain hello", out)
	}
}

func TestSpawnShellEcho(t *testing.T) {
	term, err := Spawn("/bin/cat", 80, 24)
	if err != nil {
		t.Skipf("could not spawn /bin/cat on a pty: %v", err)
	}
	defer term.Close()

	if _, err := term.Write([]byte("roundtrip\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if out := readUntil(t, term, "roundtrip", 2*time.Second); !strings.Contains(out, "roundtrip") {
		t.Fatalf("output = %q, want the echoed input", out)
	}
}

func TestWaitExitFiresOnChildExit(t *testing.T) {
	term, err := Spawn("/bin/true", 80, 24)
	if err != nil {
		t.Skipf("could not spawn /bin/true on a pty: %v", err)
	}
	defer term.Close()

	select {
	case <-term.WaitExit():
	case <-time.After(3 * time.Second):
		t.Fatal("WaitExit did not fire for a child that exits immediately")
	}
}

func TestSpawnSetsTERM(t *testing.T) {
	term, err := Spawn("/bin/sh", 80, 24)
	if err != nil {
		t.Skipf("could not spawn /bin/sh on a pty: %v", err)
	}
	defer term.Close()

	if _, err := term.Write([]byte("echo TERM=$TERM\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if out := readUntil(t, term, "TERM=xterm-256color", 2*time.Second); !strings.Contains(out, "TERM=xterm-256color") {
		t.Fatalf("output = %q, want TERM=xterm-256color", out)
	}
}

func TestResizeAfterCloseIsNoop(t *testing.T) {
	term, err := Spawn("/bin/cat", 80, 24)
	if err != nil {
		t.Skipf("could not spawn /bin/cat on a pty: %v", err)
	}
	if err := term.Resize(100, 40, 800, 600); err != nil {
		t.Fatalf("Resize on open terminal: %v", err)
	}

	if err := term.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := term.Resize(120, 50, 0, 0); err != nil {
		t.Fatalf("Resize after Close must be a no-op, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	term, err := Spawn("/bin/cat", 80, 24)
	if err != nil {
		t.Skipf("could not spawn /bin/cat on a pty: %v", err)
	}

	if err := term.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := term.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if !term.IsClosed() {
		t.Fatal("IsClosed = false after Close")
	}
	if term.Running() {
		t.Fatal("Running = true after Close")
	}
}

func TestReadAfterCloseReturnsEOF(t *testing.T) {
	term, err := Spawn("/bin/cat", 80, 24)
	if err != nil {
		t.Skipf("could not spawn /bin/cat on a pty: %v", err)
	}
	_ = term.Close()

	buf := make([]byte, 16)
	if _, err := term.Read(buf); err != io.EOF {
		t.Fatalf("Read after Close returned %v, want io.EOF", err)
	}
	if _, err := term.Write([]byte("x")); err == nil {
		t.Fatal("Write after Close returned no error")
	}
}

func TestSendInterrupt(t *testing.T) {
	term, err := Spawn("/bin/cat", 80, 24)
	if err != nil {
		t.Skipf("could not spawn /bin/cat on a pty: %v", err)
	}
	defer term.Close()

	if err := term.SendInterrupt(); err != nil {
		t.Fatalf("SendInterrupt: %v", err)
	}

	// ^C through the line discipline terminates cat.
	select {
	case <-term.WaitExit():
	case <-time.After(3 * time.Second):
		t.Fatal("child did not exit after interrupt")
	}
}
