package uds

import "github.com/samsamfire/govuds/isotp/bus"

// pairedBus and fakeAdapter mirror isotp's own loopback test doubles
// (isotp/loopback_test.go) so the uds package can drive a full client/ECU
// round trip without a real CAN adapter (SPEC_FULL.md ambient test-tooling
// note).
type pairedBus struct {
	peer *fakeAdapter
}

func (p *pairedBus) Transmit(frame bus.Frame) error {
	p.peer.deliver(frame)
	return nil
}

type fakeAdapter struct {
	callback func(bus.Frame)
	out      *pairedBus
}

func (a *fakeAdapter) Transmit(frame bus.Frame) error {
	return a.out.Transmit(frame)
}

func (a *fakeAdapter) RegisterReceiver(callback func(bus.Frame)) error {
	a.callback = callback
	return nil
}

func (a *fakeAdapter) deliver(frame bus.Frame) {
	if a.callback != nil {
		a.callback(frame)
	}
}

func newLoopbackPair() (*fakeAdapter, *fakeAdapter) {
	a := &fakeAdapter{}
	b := &fakeAdapter{}
	a.out = &pairedBus{peer: b}
	b.out = &pairedBus{peer: a}
	return a, b
}
