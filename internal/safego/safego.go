// Package safego spawns goroutines that cannot take the process down: a
// panic inside the function is recovered and logged, so one context's
// event loop dying never touches its siblings.
package safego

import (
	"runtime/debug"
	"sync"

	"github.com/sagittar-io/termcore/internal/logging"
)

// PanicHandler receives the details of a recovered panic: the goroutine's
// label, the recovered value, and the stack at the panic site.
type PanicHandler func(name string, recovered any, stack []byte)

var (
	handlerMu sync.RWMutex
	handler   PanicHandler
)

// SetPanicHandler registers a process-wide handler invoked after a panic
// has been logged. Pass nil to remove it.
func SetPanicHandler(h PanicHandler) {
	handlerMu.Lock()
	handler = h
	handlerMu.Unlock()
}

// Run invokes fn inline, converting a panic into a logged error plus a
// handler call. Runtime-fatal conditions (deadlock detection, concurrent
// map writes) are not panics and still abort the process.
func Run(name string, fn func()) {
	defer recoverPanic(name)
	fn()
}

// Go runs fn on a new goroutine with the same recovery as Run.
func Go(name string, fn func()) {
	go Run(name, fn)
}

func recoverPanic(name string) {
	r := recover()
	if r == nil {
		return
	}
	if name == "" {
		name = "goroutine"
	}
	stack := debug.Stack()
	logging.Error("panic in %s: %v\n%s", name, r, stack)

	handlerMu.RLock()
	h := handler
	handlerMu.RUnlock()
	if h == nil {
		return
	}
	// The handler is caller-supplied; its own panic must not escape the
	// recovery that just contained the first one.
	defer func() { _ = recover() }()
	h(name, r, stack)
}
