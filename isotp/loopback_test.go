package isotp

import (
	"github.com/samsamfire/govuds/isotp/bus"
)

// pairedBus connects two fakeAdapters so that whatever one side transmits,
// the other side's registered callback receives, mirroring the role
// pkg/can/virtual/virtual.go plays for the teacher's tests (a deterministic
// in-process loopback rather than a real socket).
type pairedBus struct {
	peer *fakeAdapter
}

func (p *pairedBus) Transmit(f bus.Frame) error {
	if p.peer.callback != nil {
		p.peer.callback(f)
	}
	return nil
}

type fakeAdapter struct {
	callback func(bus.Frame)
	out      *pairedBus
}

func (a *fakeAdapter) Transmit(f bus.Frame) error {
	return a.out.Transmit(f)
}

func (a *fakeAdapter) RegisterReceiver(callback func(bus.Frame)) error {
	a.callback = callback
	return nil
}

// newLoopbackPair returns two adapters, each other's peer: frames sent on
// a arrive at b's callback and vice versa.
func newLoopbackPair() (*fakeAdapter, *fakeAdapter) {
	a := &fakeAdapter{}
	b := &fakeAdapter{}
	a.out = &pairedBus{peer: b}
	b.out = &pairedBus{peer: a}
	return a, b
}
