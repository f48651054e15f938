package isotp

import (
	"golang.org/x/sys/unix"

	"github.com/sirupsen/logrus"

	"github.com/samsamfire/govuds/isotp/bus"
)

// Transport binds a bus.Adapter to one IsoTpConfig: it filters inbound
// frames by res_id the way the teacher's BusManager.Handle masks by
// unix.CAN_SFF_MASK (bus_manager.go), and feeds matching frames into a
// bounded ingress Queue (spec.md §5/§6: "The core subscribes to res_id
// only").
type Transport struct {
	adapter bus.Adapter
	cfg     Config
	queue   *bus.Queue
}

// NewTransport registers the receive callback and returns a ready
// Transport. queueCapacity follows spec.md §5's suggested bound (e.g. 64).
func NewTransport(adapter bus.Adapter, cfg Config, queueCapacity int) (*Transport, error) {
	t := &Transport{
		adapter: adapter,
		cfg:     cfg,
		queue:   bus.NewQueue(queueCapacity),
	}
	logger := logrus.WithField("component", "isotp.transport")
	t.queue.OnOverflow = func(dropped bus.Frame) {
		logger.WithField("frame", dropped).Warn("ingress queue overflow, dropping oldest")
	}
	err := adapter.RegisterReceiver(func(f bus.Frame) {
		if f.ID&unix.CAN_SFF_MASK != cfg.ResID {
			return
		}
		t.queue.Push(f)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transport) send(data []byte) error {
	return t.adapter.Transmit(bus.Frame{ID: t.cfg.ReqID, FD: t.cfg.CANFD, Data: data})
}
