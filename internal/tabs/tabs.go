// Package tabs implements the ContextManager: a fixed-capacity, ordered
// registry of (grid, event-loop, messenger) triples, one per terminal tab.
package tabs

import (
	"errors"
	"os"

	"github.com/sagittar-io/termcore/internal/grid"
	"github.com/sagittar-io/termcore/internal/inbound"
	"github.com/sagittar-io/termcore/internal/logging"
	"github.com/sagittar-io/termcore/internal/loop"
	"github.com/sagittar-io/termcore/internal/pty"
	"github.com/sagittar-io/termcore/internal/safego"
)

// DefaultCapacity is the default ceiling on the number of concurrently
// open contexts.
const DefaultCapacity = 10

// ErrCapacityExceeded is returned when add_context is rejected because the
// manager is already at capacity.
var ErrCapacityExceeded = errors.New("tabs: capacity exceeded")

// Context is one tab: a grid, its EventLoop's inbound sender, and the id
// that names it within the manager.
type Context struct {
	ID       uint64
	Grid     *grid.Grid
	Messages chan<- inbound.Msg
	loop     *loop.EventLoop
}

// ptyFactory builds the Pty collaborator for a new context. Production
// code always uses newShellPty; tests substitute a double so context
// bookkeeping (ids, current selection) can be exercised without spawning
// real shells, mirroring the source's test-only start_with_capacity.
type ptyFactory func(shell string, cols, rows uint16) (loop.Pty, error)

func newShellPty(shell string, cols, rows uint16) (loop.Pty, error) {
	return pty.Spawn(shell, cols, rows)
}

// Manager is the ContextManager: an ordered list of contexts with a
// current selection, bounded by a capacity.
type Manager struct {
	contexts  []*Context
	currentID uint64
	nextID    uint64
	capacity  int
	wakeup    func(id uint64)
	cols      int
	rows      int
	newPty    ptyFactory
}

// Start constructs a Manager with one spawned context at id 0.
func Start(cols, rows, capacity int, wakeup func(id uint64)) (*Manager, error) {
	return start(cols, rows, capacity, wakeup, newShellPty, true)
}

func start(cols, rows, capacity int, wakeup func(id uint64), factory ptyFactory, spawn bool) (*Manager, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m := &Manager{
		capacity: capacity,
		wakeup:   wakeup,
		cols:     cols,
		rows:     rows,
		newPty:   factory,
	}
	ctx, err := m.createContext(0, cols, rows, spawn)
	if err != nil {
		return nil, err
	}
	m.contexts = append(m.contexts, ctx)
	m.currentID = 0
	m.nextID = 1
	return m, nil
}

// shell returns the SHELL environment variable, defaulting to bash.
func shell() string {
	if s := os.Getenv("SHELL"); s != "" {
		return s
	}
	return "bash"
}

func (m *Manager) createContext(id uint64, cols, rows int, spawn bool) (*Context, error) {
	g := grid.New(cols, rows)

	p, err := m.newPty(shell(), uint16(cols), uint16(rows))
	if err != nil {
		logging.Error("tabs: failed to create pty for context %d: %v", id, err)
		return nil, err
	}

	l := loop.New(p, g, func() {
		if m.wakeup != nil {
			m.wakeup(id)
		}
	})

	ctx := &Context{
		ID:       id,
		Grid:     g,
		Messages: l.Inbound(),
		loop:     l,
	}

	if spawn {
		safego.Go("context-loop", l.Run)
	}

	return ctx, nil
}

// AddContext appends a new context if capacity allows. If redirect is true,
// the new context becomes current. Returns the new context's id.
func (m *Manager) AddContext(redirect, spawn bool) (uint64, error) {
	if len(m.contexts) >= m.capacity {
		logging.Error("tabs: add_context rejected, at capacity %d", m.capacity)
		return 0, ErrCapacityExceeded
	}

	id := m.nextID
	ctx, err := m.createContext(id, m.cols, m.rows, spawn)
	if err != nil {
		return 0, err
	}
	m.nextID++
	m.contexts = append(m.contexts, ctx)
	if redirect {
		m.currentID = id
	}
	return id, nil
}

// CloseContext removes the context with the given id. The last remaining
// context is never removed; closing it only resets current_id to 0.
func (m *Manager) CloseContext(id uint64) {
	if len(m.contexts) <= 1 {
		m.currentID = 0
		return
	}

	pos := m.position(id)
	if pos < 0 {
		return
	}

	ctx := m.contexts[pos]
	m.contexts = append(m.contexts[:pos], m.contexts[pos+1:]...)
	if ctx.loop != nil {
		select {
		case ctx.Messages <- inbound.Shutdown{}:
		default:
		}
	}

	// Matches the source's unconditional reassignment: current_id always
	// becomes the last remaining context's id after a close, regardless of
	// whether the closed context was the current one. See DESIGN.md.
	m.currentID = m.contexts[len(m.contexts)-1].ID
}

// SetCurrent sets current_id if id names an existing context; otherwise a
// no-op.
func (m *Manager) SetCurrent(id uint64) {
	if m.Contains(id) {
		m.currentID = id
	}
}

// SwitchToNext advances current_id to the next context in list order,
// wrapping to the first after the last.
func (m *Manager) SwitchToNext() {
	pos := m.position(m.currentID)
	if pos < 0 {
		return
	}
	if pos+1 < len(m.contexts) {
		m.currentID = m.contexts[pos+1].ID
		return
	}
	m.currentID = m.contexts[0].ID
}

// Current returns the current context. It indexes by position, not by id
// value, which is the fix this implementation mandates over a naive
// "contexts[current_id]" indexing scheme (see DESIGN.md).
func (m *Manager) Current() *Context {
	pos := m.position(m.currentID)
	if pos < 0 {
		return nil
	}
	return m.contexts[pos]
}

// CurrentID returns the currently selected context id.
func (m *Manager) CurrentID() uint64 {
	return m.currentID
}

// Contexts returns the ordered list of contexts. Callers must not mutate
// the returned slice.
func (m *Manager) Contexts() []*Context {
	return m.contexts
}

// Len returns the number of open contexts.
func (m *Manager) Len() int {
	return len(m.contexts)
}

// Contains reports whether a context with the given id exists.
func (m *Manager) Contains(id uint64) bool {
	return m.position(id) >= 0
}

func (m *Manager) position(id uint64) int {
	for i, ctx := range m.contexts {
		if ctx.ID == id {
			return i
		}
	}
	return -1
}
