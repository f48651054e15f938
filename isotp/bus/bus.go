// Package bus defines the CAN bus adapter boundary consumed by isotp, plus
// a bounded, deadline-aware ingress queue of inbound frames. Real drivers
// live in sub-packages (canbus, backed by github.com/brutella/can) and are
// downstream collaborators, not core (spec.md §1/§6).
package bus

import (
	"context"
	"sync"

	"github.com/samsamfire/govuds/internal/fifo"
)

// Frame is one CAN or CAN-FD frame: an identifier and up to 64 data bytes.
type Frame struct {
	ID   uint32
	FD   bool
	Data []byte
}

// Adapter is the boundary the core ISO-TP layer requires from a CAN
// driver: transmit one frame, and register a receive callback (spec.md §6
// "Bus adapter interface (provided by environment)").
type Adapter interface {
	Transmit(frame Frame) error
	RegisterReceiver(callback func(Frame)) error
}

// Queue is a bounded, thread-safe FIFO of inbound frames with a
// deadline-aware Pop, populated from an Adapter's receive callback
// (spec.md §5). Storage is a fifo.Ring (internal/fifo, adapted from the
// teacher's byte ring to hold whole frames); Queue itself only adds the
// mutex and the condition signaling Pop blocks on. Overflow drops the
// oldest frame and reports it via OnOverflow so callers can log.
type Queue struct {
	mu         sync.Mutex
	notEmpty   chan struct{}
	ring       *fifo.Ring[Frame]
	OnOverflow func(dropped Frame)
}

// NewQueue creates a bounded queue of the given capacity (spec.md §5
// suggests e.g. 64 frames).
func NewQueue(capacity int) *Queue {
	return &Queue{
		ring:     fifo.NewRing[Frame](capacity),
		notEmpty: make(chan struct{}, 1),
	}
}

// Push enqueues a frame, dropping the oldest on overflow.
func (q *Queue) Push(f Frame) {
	q.mu.Lock()
	dropped, overflowed := q.ring.Push(f)
	onOverflow := q.OnOverflow
	q.mu.Unlock()
	if overflowed && onOverflow != nil {
		onOverflow(dropped)
	}
	select {
	case q.notEmpty <- struct{}{}:
	default:
	}
}

// Pop blocks until a frame is available or ctx is done, returning
// ok=false on expiry.
func (q *Queue) Pop(ctx context.Context) (Frame, bool) {
	for {
		q.mu.Lock()
		f, ok := q.ring.Pop()
		q.mu.Unlock()
		if ok {
			return f, true
		}

		select {
		case <-ctx.Done():
			return Frame{}, false
		case <-q.notEmpty:
		}
	}
}

// Drain discards all currently queued frames, used when a state machine
// abandons a PDU after a timeout (spec.md §5 "further frames... are
// drained silently").
func (q *Queue) Drain() {
	q.mu.Lock()
	q.ring.Reset()
	q.mu.Unlock()
}
