// Package bytesink implements an ordered outbound byte queue with a
// partial-write cursor, suitable for a single-consumer write loop that may
// see short writes from a non-blocking pty.
package bytesink

// chunk is a pending (or in-flight) slice of bytes together with how much of
// it has already been written. Go slices already describe a view over an
// underlying array, so no owned/borrowed distinction is needed: enqueuing a
// static literal and enqueuing a caller-owned buffer both cost a slice
// header copy, never a byte copy.
type chunk struct {
	data    []byte
	written int
}

// Sink is an ordered queue of pending outbound byte chunks with a single
// in-flight chunk at the logical head. It has no internal locking: it is
// owned exclusively by the EventLoop goroutine that drains it.
type Sink struct {
	queue    [][]byte
	inFlight *chunk
}

// New returns an empty Sink.
func New() *Sink {
	return &Sink{}
}

// Enqueue appends chunk to the tail of the queue.
func (s *Sink) Enqueue(data []byte) {
	if len(data) == 0 {
		return
	}
	s.queue = append(s.queue, data)
}

// EnsureInFlight promotes the queue head to in-flight if nothing is
// currently in flight and the queue is non-empty. Returns false if there is
// still nothing to write.
func (s *Sink) EnsureInFlight() bool {
	if s.inFlight != nil {
		return true
	}
	if len(s.queue) == 0 {
		return false
	}
	s.inFlight = &chunk{data: s.queue[0]}
	s.queue = s.queue[1:]
	return true
}

// Remaining returns the unwritten tail of the in-flight chunk. Callers must
// only call this after EnsureInFlight returns true.
func (s *Sink) Remaining() []byte {
	return s.inFlight.data[s.inFlight.written:]
}

// Advance records that n more bytes of the in-flight chunk were written. If
// the chunk is now fully written, it is dropped so the next EnsureInFlight
// promotes the following chunk in the queue.
func (s *Sink) Advance(n int) {
	s.inFlight.written += n
	if s.inFlight.written >= len(s.inFlight.data) {
		s.inFlight = nil
	}
}

// NeedsWrite reports whether there is an in-flight chunk or queued data
// still waiting to be written.
func (s *Sink) NeedsWrite() bool {
	return s.inFlight != nil || len(s.queue) > 0
}

// Len returns the number of whole chunks still queued, not counting any
// in-flight chunk.
func (s *Sink) Len() int {
	return len(s.queue)
}
