// Package grid is the consistency boundary shared between an EventLoop and
// the renderer/UI: a terminal screen (internal/vterm.VTerm) guarded by a
// fair mutex so a high-frequency pty reader cannot starve a renderer trying
// to take a snapshot.
package grid

import (
	"github.com/sagittar-io/termcore/internal/fairlock"
	"github.com/sagittar-io/termcore/internal/vterm"
)

// Grid is a reference-counted (in Go, simply shared-by-pointer) handle to a
// terminal screen. EventLoop mutates it through the parser while holding
// the lock; the renderer/UI reads it the same way.
type Grid struct {
	lock *fairlock.Mutex
	VT   *vterm.VTerm
}

// New creates a Grid of the given size.
func New(cols, rows int) *Grid {
	return &Grid{
		lock: fairlock.New(),
		VT:   vterm.New(cols, rows),
	}
}

// Lock acquires the fair mutex, blocking until available.
func (g *Grid) Lock() {
	g.lock.Lock()
}

// Unlock releases the fair mutex.
func (g *Grid) Unlock() {
	g.lock.Unlock()
}

// TryLock attempts to acquire the fair mutex without blocking.
func (g *Grid) TryLock() bool {
	return g.lock.TryLock()
}

// Resize resizes the underlying screen under lock.
func (g *Grid) Resize(cols, rows int) {
	g.Lock()
	defer g.Unlock()
	g.VT.Resize(cols, rows)
}
