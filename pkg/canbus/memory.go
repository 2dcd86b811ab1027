package canbus

import "sync"

// MemoryBus is an in-process Bus that keeps every sent frame in a
// bounded queue. It backs the "loopback" bus kind and host-side tests,
// where no CAN hardware or broker is reachable.
type MemoryBus struct {
	mu     sync.Mutex
	frames []Frame
	closed bool

	// FailNext forces the next Send to report a bus error. Test hook.
	FailNext bool
}

// memoryBusDepth bounds the retained frame history; the brake status
// stream is periodic, so old frames have no value.
const memoryBusDepth = 256

// NewMemoryBus creates an empty loopback bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Send records the frame after validation.
func (b *MemoryBus) Send(frame Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if b.FailNext {
		b.FailNext = false
		return ErrClosed
	}
	if len(b.frames) >= memoryBusDepth {
		b.frames = b.frames[1:]
	}
	b.frames = append(b.frames, frame)
	return nil
}

// Close marks the bus closed.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Frames returns a copy of every frame sent so far.
func (b *MemoryBus) Frames() []Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Frame, len(b.frames))
	copy(out, b.frames)
	return out
}

// Last returns the most recent frame, if any.
func (b *MemoryBus) Last() (Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.frames) == 0 {
		return Frame{}, false
	}
	return b.frames[len(b.frames)-1], true
}

// Reset drops the recorded frames.
func (b *MemoryBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = b.frames[:0]
}
