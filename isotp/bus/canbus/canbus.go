// Package canbus adapts github.com/brutella/can to the bus.Adapter
// interface, the way the teacher's root-level socketcan.go wraps the same
// library for its own Bus interface.
package canbus

import (
	brutellacan "github.com/brutella/can"

	"github.com/samsamfire/govuds/isotp/bus"
)

// Bus is a bus.Adapter backed by a real SocketCAN interface via
// github.com/brutella/can.
type Bus struct {
	bus      *brutellacan.Bus
	callback func(bus.Frame)
}

// New opens a SocketCAN interface by name (e.g. "can0").
func New(ifaceName string) (*Bus, error) {
	b, err := brutellacan.NewBusForInterfaceWithName(ifaceName)
	if err != nil {
		return nil, err
	}
	return &Bus{bus: b}, nil
}

// Connect starts the read loop; mirrors socketcan.go's Connect, which also
// fires the brutella read loop off in its own goroutine.
func (b *Bus) Connect() error {
	go b.bus.ConnectAndPublish()
	return nil
}

// Transmit implements bus.Adapter.
func (b *Bus) Transmit(frame bus.Frame) error {
	data := [8]byte{}
	copy(data[:], frame.Data)
	return b.bus.Publish(brutellacan.Frame{
		ID:     frame.ID,
		Length: uint8(len(frame.Data)),
		Data:   data,
	})
}

// RegisterReceiver implements bus.Adapter.
func (b *Bus) RegisterReceiver(callback func(bus.Frame)) error {
	b.callback = callback
	b.bus.Subscribe(b)
	return nil
}

// Handle implements brutella/can's Handler interface.
func (b *Bus) Handle(frame brutellacan.Frame) {
	if b.callback == nil {
		return
	}
	b.callback(bus.Frame{ID: frame.ID, Data: frame.Data[:frame.Length]})
}
