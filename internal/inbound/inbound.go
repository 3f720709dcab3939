// Package inbound defines the value-typed message sum the UI sends into an
// EventLoop's input channel.
package inbound

// Msg is implemented by every inbound message kind. The marker method keeps
// the sum closed to this package, the idiomatic Go stand-in for a sealed
// enum.
type Msg interface {
	isMsg()
}

// Input carries bytes to transmit to the pty, in enqueue order.
type Input struct {
	Data []byte
}

func (Input) isMsg() {}

// Resize requests a cardinal terminal resize.
type Resize struct {
	Cols, Rows     uint16
	PixelW, PixelH uint32
}

func (Resize) isMsg() {}

// Shutdown requests clean termination of the loop.
type Shutdown struct{}

func (Shutdown) isMsg() {}
