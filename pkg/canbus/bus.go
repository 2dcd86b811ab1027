package canbus

import "errors"

// Bus is a CAN bus connection able to transmit frames. Implementations
// must be safe for concurrent use.
//
// Sends are fire-and-forget at the protocol level: a returned error
// means the frame was not handed to the transport, and callers are free
// to ignore it. There is no retry, queueing, or backpressure.
type Bus interface {
	// Send transmits a frame.
	Send(frame Frame) error

	// Close releases resources. Further sends return ErrClosed.
	Close() error
}

// ErrClosed indicates the bus has been closed.
var ErrClosed = errors.New("canbus: closed")
