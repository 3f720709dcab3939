package loop

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sagittar-io/termcore/internal/grid"
	"github.com/sagittar-io/termcore/internal/inbound"
	"github.com/sagittar-io/termcore/internal/pty"
)

// fakePty is an in-memory Pty double: reads come from a channel the test
// feeds, writes are recorded, and Close/WaitExit behave like the real
// pty.Terminal closely enough to exercise the loop's lifecycle.
type fakePty struct {
	mu       sync.Mutex
	readCh   chan []byte
	writes   [][]byte
	exitCh   chan struct{}
	closeCh  chan struct{}
	closeOne sync.Once
}

func newFakePty() *fakePty {
	return &fakePty{
		readCh:  make(chan []byte, 16),
		exitCh:  make(chan struct{}),
		closeCh: make(chan struct{}),
	}
}

func (p *fakePty) Read(buf []byte) (int, error) {
	// Like a real master: queued output is still readable after child
	// exit, and end of stream follows once it is drained.
	select {
	case data, ok := <-p.readCh:
		if !ok {
			return 0, io.EOF
		}
		return copy(buf, data), nil
	default:
	}
	select {
	case data, ok := <-p.readCh:
		if !ok {
			return 0, io.EOF
		}
		return copy(buf, data), nil
	case <-p.exitCh:
		select {
		case data := <-p.readCh:
			return copy(buf, data), nil
		default:
			return 0, io.EOF
		}
	case <-p.closeCh:
		return 0, io.ErrClosedPipe
	}
}

func (p *fakePty) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := append([]byte(nil), buf...)
	p.writes = append(p.writes, cp)
	return len(buf), nil
}

func (p *fakePty) WaitExit() <-chan struct{} { return p.exitCh }

func (p *fakePty) Resize(cols, rows, pxWidth, pxHeight uint16) error { return nil }

func (p *fakePty) Close() error {
	p.closeOne.Do(func() { close(p.closeCh) })
	return nil
}

func (p *fakePty) writtenString() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []byte
	for _, w := range p.writes {
		out = append(out, w...)
	}
	return string(out)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("condition not met within %s", timeout)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestEventLoop_ReadAppliesToGrid(t *testing.T) {
	p := newFakePty()
	g := grid.New(20, 5)
	var wakeups int32
	var mu sync.Mutex
	l := New(p, g, func() {
		mu.Lock()
		wakeups++
		mu.Unlock()
	})
	go l.Run()

	p.readCh <- []byte("abc")

	waitFor(t, time.Second, func() bool {
		g.Lock()
		defer g.Unlock()
		return g.VT.Screen[0][0].Rune == 'a' && g.VT.Screen[0][1].Rune == 'b' && g.VT.Screen[0][2].Rune == 'c'
	})

	l.Inbound() <- inbound.Shutdown{}
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after Shutdown")
	}
}

func TestEventLoop_InputIsWrittenToPty(t *testing.T) {
	p := newFakePty()
	g := grid.New(20, 5)
	l := New(p, g, func() {})
	go l.Run()

	l.Inbound() <- inbound.Input{Data: []byte("hello\n")}

	waitFor(t, time.Second, func() bool {
		return p.writtenString() == "hello\n"
	})

	l.Inbound() <- inbound.Shutdown{}
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after Shutdown")
	}
}

func TestEventLoop_ShutdownIsIdempotent(t *testing.T) {
	p := newFakePty()
	g := grid.New(20, 5)
	l := New(p, g, func() {})
	go l.Run()

	l.Inbound() <- inbound.Shutdown{}
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after first Shutdown")
	}

	// A second Shutdown after the loop has already exited must not panic;
	// the inbound channel is still open and buffered, so the send itself
	// always succeeds.
	select {
	case l.Inbound() <- inbound.Shutdown{}:
	default:
	}
}

func TestEventLoop_ChildExitTerminatesLoop(t *testing.T) {
	p := newFakePty()
	g := grid.New(20, 5)
	wakeupCh := make(chan struct{}, 1)
	l := New(p, g, func() {
		select {
		case wakeupCh <- struct{}{}:
		default:
		}
	})
	go l.Run()

	close(p.exitCh)

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after child exit")
	}
	select {
	case <-wakeupCh:
	default:
		t.Fatal("expected a final wakeup on child exit")
	}
}

func TestEventLoop_ChildExitDrainsTrailingOutput(t *testing.T) {
	p := newFakePty()
	g := grid.New(20, 5)
	l := New(p, g, func() {})

	// Output written just before exit must still reach the parser even
	// though the exit signal is already observable when the loop looks.
	p.readCh <- []byte("last")
	close(p.exitCh)
	go l.Run()

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after child exit")
	}

	g.Lock()
	defer g.Unlock()
	if g.VT.Screen[0][0].Rune != 'l' || g.VT.Screen[0][3].Rune != 't' {
		t.Fatalf("trailing output lost, row 0 = %q", string([]rune{
			g.VT.Screen[0][0].Rune, g.VT.Screen[0][1].Rune,
			g.VT.Screen[0][2].Rune, g.VT.Screen[0][3].Rune,
		}))
	}
}

func TestEventLoop_InputBeforeShutdownIsFlushed(t *testing.T) {
	p := newFakePty()
	g := grid.New(20, 5)
	l := New(p, g, func() {})

	// Queue the input and the shutdown together so the loop sees them in
	// one drain; the input must still reach the pty.
	l.Inbound() <- inbound.Input{Data: []byte("exit\n")}
	l.Inbound() <- inbound.Shutdown{}
	go l.Run()

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after Shutdown")
	}
	if got := p.writtenString(); got != "exit\n" {
		t.Fatalf("written = %q, want the pre-shutdown input", got)
	}
}

func TestEventLoop_EchoRoundTripOverRealPty(t *testing.T) {
	term, err := pty.Spawn("/bin/sh", 80, 24)
	if err != nil {
		t.Skipf("could not spawn /bin/sh: %v", err)
	}

	g := grid.New(80, 24)
	l := New(term, g, func() {})
	go l.Run()

	l.Inbound() <- inbound.Input{Data: []byte("echo hello\n")}

	waitFor(t, 3*time.Second, func() bool {
		g.Lock()
		defer g.Unlock()
		for _, row := range g.VT.Screen {
			line := make([]rune, 0, len(row))
			for _, c := range row {
				line = append(line, c.Rune)
			}
			if containsRunes(line, []rune("hello")) {
				return true
			}
		}
		return false
	})

	l.Inbound() <- inbound.Shutdown{}
	select {
	case <-l.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("loop did not exit after Shutdown")
	}
}

func containsRunes(haystack, needle []rune) bool {
	if len(needle) == 0 || len(haystack) < len(needle) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestEventLoop_SyncTimeoutForcesEndAndWakesOnce(t *testing.T) {
	p := newFakePty()
	g := grid.New(20, 5)
	var wakeups int32
	var mu sync.Mutex
	l := New(p, g, func() {
		mu.Lock()
		wakeups++
		mu.Unlock()
	})
	go l.Run()

	// DECSET 2026 (begin synchronized update).
	p.readCh <- []byte("\x1b[?2026h")

	waitFor(t, time.Second, func() bool {
		g.Lock()
		defer g.Unlock()
		return g.VT.SyncActive()
	})

	waitFor(t, 500*time.Millisecond, func() bool {
		g.Lock()
		defer g.Unlock()
		return !g.VT.SyncActive()
	})

	l.Inbound() <- inbound.Shutdown{}
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after Shutdown")
	}

	// One wakeup for the read that opened the window, and exactly one more
	// when the timeout closed it.
	mu.Lock()
	defer mu.Unlock()
	if wakeups != 2 {
		t.Fatalf("wakeups = %d, want 2 (opening read plus one for the timeout)", wakeups)
	}
}
