// Package loop implements the EventLoop and PtyPump: the single-goroutine
// driver that shuttles bytes between a pty and a terminal grid, bounding
// how long it holds the grid's fair lock and honoring the parser's
// synchronized-update timeout.
//
// The reference design (a mio poller multiplexing pty readability, pty
// writability, an inbound message pipe, and a child-exit token) is
// translated here into Go's native multiplexer: a dedicated reader
// goroutine performs blocking pty reads (Go's runtime parks the goroutine
// rather than spinning on EAGAIN, so this already satisfies "non-blocking
// from the caller's perspective") and forwards each read over an unbuffered
// channel; the EventLoop's single select treats a receive on that channel,
// a receive on the inbound message channel, and the pty's exit signal as
// its three readiness sources, with a timer standing in for the fourth
// (the synchronized-update deadline).
package loop

import (
	"errors"
	"io"
	"syscall"
	"time"

	"github.com/sagittar-io/termcore/internal/bytesink"
	"github.com/sagittar-io/termcore/internal/grid"
	"github.com/sagittar-io/termcore/internal/inbound"
	"github.com/sagittar-io/termcore/internal/logging"
	"github.com/sagittar-io/termcore/internal/safego"
)

// ReadBufferSize is the capacity of a single pty read.
const ReadBufferSize = 1 << 20 // 1_048_576

// MaxLockedRead bounds how many bytes of a single read may be fed to the
// parser while continuously holding the grid lock.
const MaxLockedRead = 65535

// InboundChanSize is the inbound message channel's buffer; sized generously
// so a burst of keystrokes never blocks the UI goroutine sending them.
const InboundChanSize = 256

// finalReadTimeout bounds the blocking drain of trailing pty output after
// child exit, for the case where the master stays open (e.g. an orphaned
// grandchild still holds the slave) and end-of-stream never arrives.
const finalReadTimeout = 250 * time.Millisecond

// Pty is the contract the loop needs from its pseudoterminal collaborator.
// *internal/pty.Terminal satisfies this.
type Pty interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	WaitExit() <-chan struct{}
	Resize(cols, rows, pxWidth, pxHeight uint16) error
	Close() error
}

// WakeupFunc is invoked whenever the grid may have changed and the
// renderer should consider redrawing. It must not block.
type WakeupFunc func()

// EventLoop owns a Pty, a ByteSink, and a read buffer for exactly one
// context. It is not safe for concurrent use by more than the goroutines
// this package starts internally.
type EventLoop struct {
	pty     Pty
	grid    *grid.Grid
	sink    *bytesink.Sink
	wakeup  WakeupFunc
	inbound chan inbound.Msg
	done    chan struct{}
}

// New constructs an EventLoop for the given pty/grid pair. Run must be
// called (typically via safego.Go) to start it.
func New(p Pty, g *grid.Grid, wakeup WakeupFunc) *EventLoop {
	return &EventLoop{
		pty:     p,
		grid:    g,
		sink:    bytesink.New(),
		wakeup:  wakeup,
		inbound: make(chan inbound.Msg, InboundChanSize),
		done:    make(chan struct{}),
	}
}

// Inbound returns the send-only handle UI code uses to enqueue messages.
// Cheap to pass around and share, matching a cloneable MPSC sender.
func (l *EventLoop) Inbound() chan<- inbound.Msg {
	return l.inbound
}

// Done is closed once the loop has exited for any reason.
func (l *EventLoop) Done() <-chan struct{} {
	return l.done
}

type readResult struct {
	data []byte
	err  error
}

// Run is the EventLoop's main loop. It blocks until the loop terminates:
// on Shutdown, on the inbound channel being closed, on child exit, or on a
// fatal pty I/O error. It is intended to be launched via safego.Go so a
// panic in one context cannot affect its siblings.
func (l *EventLoop) Run() {
	defer close(l.done)
	// Closing the pty unblocks any outstanding blocking Read in the reader
	// goroutine below, whatever the exit reason.
	defer l.pty.Close()

	reads := make(chan readResult)
	// readerDone is the loop's stop signal to the reader goroutine; only
	// the loop closes it.
	readerDone := make(chan struct{})
	safego.Go("pty-reader", func() {
		buf := make([]byte, ReadBufferSize)
		for {
			n, err := l.pty.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case reads <- readResult{data: chunk}:
				case <-readerDone:
					return
				}
			}
			if err != nil {
				if isEIO(err) {
					// Slave hangup race: the master keeps returning EIO
					// until it is closed, so park on the child-exit
					// signal instead of spinning on the error, then
					// report end of stream.
					select {
					case <-l.pty.WaitExit():
						err = io.EOF
					case <-readerDone:
						return
					}
				}
				select {
				case reads <- readResult{err: err}:
				case <-readerDone:
				}
				return
			}
		}
	})

	syncTimer := time.NewTimer(time.Hour)
	if !syncTimer.Stop() {
		<-syncTimer.C
	}
	defer syncTimer.Stop()

	for {
		if deadline, active := l.grid.VT.SyncTimeout(); active {
			resetTimer(syncTimer, timeUntil(deadline))
		} else {
			stopTimer(syncTimer)
		}

		select {
		case <-syncTimer.C:
			l.grid.Lock()
			l.grid.VT.ForceEndSync()
			l.grid.Unlock()
			l.wakeup()
			continue

		case msg, ok := <-l.inbound:
			if !ok || !l.drainInbound(msg) {
				// Input accepted before the shutdown still reaches the
				// shell, as long as the pty stays writable.
				if l.sink.NeedsWrite() {
					_ = l.ptyWrite()
				}
				close(readerDone)
				return
			}

		case res := <-reads:
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					// Master drained after the slave side went away; the
					// child-exit signal finishes the loop.
					continue
				}
				logging.Error("pty read error: %v", res.err)
				close(readerDone)
				return
			}
			l.applyRead(res.data)

		case <-l.pty.WaitExit():
			l.drainFinalReads(reads)
			l.wakeup()
			close(readerDone)
			return
		}

		if l.sink.NeedsWrite() {
			if err := l.ptyWrite(); err != nil {
				logging.Error("pty write error: %v", err)
				close(readerDone)
				return
			}
		}
	}
}

// drainInbound processes msg and any further messages already queued,
// without blocking. Returns false if the loop should exit.
func (l *EventLoop) drainInbound(first inbound.Msg) bool {
	msg := first
	for {
		switch m := msg.(type) {
		case inbound.Input:
			l.sink.Enqueue(m.Data)
		case inbound.Resize:
			l.grid.Resize(int(m.Cols), int(m.Rows))
			if err := l.pty.Resize(m.Cols, m.Rows, uint16(m.PixelW), uint16(m.PixelH)); err != nil {
				logging.Warn("pty resize failed: %v", err)
			}
		case inbound.Shutdown:
			return false
		}

		select {
		case next, ok := <-l.inbound:
			if !ok {
				return false
			}
			msg = next
		default:
			return true
		}
	}
}

// applyRead feeds data to the parser in MaxLockedRead-sized slices, never
// holding the grid lock across a pty syscall and never continuously longer
// than one slice.
func (l *EventLoop) applyRead(data []byte) {
	processed := 0
	l.grid.VT.ResetSyncBytesConsumed()

	for processed < len(data) {
		end := processed + MaxLockedRead
		if end > len(data) {
			end = len(data)
		}
		slice := data[processed:end]

		if !l.grid.TryLock() {
			l.grid.Lock()
		}
		l.grid.VT.Write(slice)
		l.grid.Unlock()

		processed = end
	}

	if l.grid.VT.SyncBytesConsumed() < processed && processed > 0 {
		l.wakeup()
	}
}

// drainFinalReads performs the final read cycle once child exit has been
// observed: output the child wrote just before exiting may still be in
// flight from the reader goroutine, so block until the reader reports end
// of stream rather than peeking. The deadline covers masters that never
// reach EOF because another process still holds the slave.
func (l *EventLoop) drainFinalReads(reads <-chan readResult) {
	deadline := time.After(finalReadTimeout)
	for {
		select {
		case res := <-reads:
			if res.err != nil {
				return
			}
			l.applyRead(res.data)
		case <-deadline:
			return
		}
	}
}

// ptyWrite drains the sink to the pty, matching the write cycle: keep
// writing after a short write, stop on a zero write or EAGAIN/EINTR, fail
// the loop on a real error.
func (l *EventLoop) ptyWrite() error {
	for l.sink.EnsureInFlight() {
		remaining := l.sink.Remaining()
		n, err := l.pty.Write(remaining)
		if n > 0 {
			l.sink.Advance(n)
		}
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR) {
				return nil
			}
			return err
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

func isEIO(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) {
		return false
	}
	return errors.Is(err, syscall.EIO)
}

func timeUntil(deadline time.Time) time.Duration {
	d := time.Until(deadline)
	if d < 0 {
		return 0
	}
	return d
}

func resetTimer(t *time.Timer, d time.Duration) {
	stopTimer(t)
	t.Reset(d)
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
