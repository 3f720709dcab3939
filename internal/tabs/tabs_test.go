package tabs

import (
	"testing"

	"github.com/sagittar-io/termcore/internal/loop"
)

// noopPty is a Pty double that never produces output and never exits,
// letting ContextManager bookkeeping be exercised without spawning real
// shells.
type noopPty struct {
	exitCh chan struct{}
}

func newNoopPty(string, uint16, uint16) (loop.Pty, error) {
	return &noopPty{exitCh: make(chan struct{})}, nil
}

func (p *noopPty) Read(buf []byte) (int, error) {
	<-p.exitCh
	return 0, errClosed
}
func (p *noopPty) Write(buf []byte) (int, error)                    { return len(buf), nil }
func (p *noopPty) WaitExit() <-chan struct{}                        { return p.exitCh }
func (p *noopPty) Resize(cols, rows, pxWidth, pxHeight uint16) error { return nil }
func (p *noopPty) Close() error {
	select {
	case <-p.exitCh:
	default:
		close(p.exitCh)
	}
	return nil
}

type closedPipeErr struct{}

func (closedPipeErr) Error() string { return "noopPty: closed" }

var errClosed error = closedPipeErr{}

func newTestManager(t *testing.T, capacity int) *Manager {
	t.Helper()
	m, err := start(10, 4, capacity, nil, newNoopPty, false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return m
}

func TestManager_CloseAllButOne(t *testing.T) {
	m := newTestManager(t, 5)

	for i := 0; i < 4; i++ {
		if _, err := m.AddContext(false, false); err != nil {
			t.Fatalf("AddContext: %v", err)
		}
	}
	if m.Len() != 5 {
		t.Fatalf("len = %d, want 5", m.Len())
	}

	for _, id := range []uint64{0, 1, 2, 3} {
		m.CloseContext(id)
	}
	if m.Len() != 1 {
		t.Fatalf("len after closing 0..3 = %d, want 1", m.Len())
	}
	if m.CurrentID() != 4 {
		t.Fatalf("current_id = %d, want 4", m.CurrentID())
	}

	m.CloseContext(4)
	if m.Len() != 1 {
		t.Fatalf("len after closing last context = %d, want 1 (never removed)", m.Len())
	}
	if m.CurrentID() != 0 {
		t.Fatalf("current_id after closing last context = %d, want 0", m.CurrentID())
	}
}

func TestManager_SwitchToNextWraps(t *testing.T) {
	m := newTestManager(t, 5)
	if _, err := m.AddContext(false, false); err != nil {
		t.Fatalf("AddContext: %v", err)
	}
	if _, err := m.AddContext(false, false); err != nil {
		t.Fatalf("AddContext: %v", err)
	}
	if m.CurrentID() != 0 {
		t.Fatalf("current_id = %d, want 0", m.CurrentID())
	}

	want := []uint64{1, 2, 0, 1}
	for i, w := range want {
		m.SwitchToNext()
		if got := m.CurrentID(); got != w {
			t.Fatalf("switch %d: current_id = %d, want %d", i, got, w)
		}
	}
}

func TestManager_SetCurrentAbsentIDIsNoop(t *testing.T) {
	m := newTestManager(t, 5)
	before := m.CurrentID()
	m.SetCurrent(999)
	if m.CurrentID() != before {
		t.Fatalf("current_id changed to %d after setting absent id, want unchanged %d", m.CurrentID(), before)
	}
}

func TestManager_AddContextRejectsBeyondCapacity(t *testing.T) {
	m := newTestManager(t, 2)
	if _, err := m.AddContext(false, false); err != nil {
		t.Fatalf("AddContext: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("len = %d, want 2", m.Len())
	}
	if _, err := m.AddContext(false, false); err != ErrCapacityExceeded {
		t.Fatalf("AddContext beyond capacity: err = %v, want ErrCapacityExceeded", err)
	}
	if m.Len() != 2 {
		t.Fatalf("len after rejected add = %d, want still 2", m.Len())
	}
}

func TestManager_AddContextRedirect(t *testing.T) {
	m := newTestManager(t, 5)
	id, err := m.AddContext(true, false)
	if err != nil {
		t.Fatalf("AddContext: %v", err)
	}
	if m.CurrentID() != id {
		t.Fatalf("current_id = %d, want redirect target %d", m.CurrentID(), id)
	}
}

func TestManager_CurrentIndexesByPosition(t *testing.T) {
	m := newTestManager(t, 5)
	for i := 0; i < 3; i++ {
		if _, err := m.AddContext(false, false); err != nil {
			t.Fatalf("AddContext: %v", err)
		}
	}
	// Remove enough contexts that surviving ids exceed the list length,
	// which is exactly the scenario a naive "contexts[current_id]"
	// indexing scheme panics on.
	m.CloseContext(0)
	m.CloseContext(1)
	m.SetCurrent(3)

	ctx := m.Current()
	if ctx == nil || ctx.ID != 3 {
		t.Fatalf("Current() = %+v, want context with id 3", ctx)
	}
}
