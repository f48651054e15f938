package uds

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samsamfire/govuds/isotp"
	"github.com/samsamfire/govuds/odx"
)

// Client is the UDS session layer: one sender/receiver pair, a compiled
// dispatch table, and the send mutex serializing requests (spec.md §4.6,
// §5 "cooperative, single-logical-client"). Grounded on
// original_source/uds/uds_communications/Uds/Uds.py, whose sendLock and
// __transmissionActive_flag this mirrors as sendMu/isTransmitting.
type Client struct {
	sender   *isotp.Sender
	receiver *isotp.Receiver
	table    map[string]*serviceEntry

	p2CANClient time.Duration

	sendMu         sync.Mutex
	transmitting   atomic.Bool
	statsMu        sync.Mutex
	stats          Stats
	logger         *logrus.Entry
}

// NewClient compiles services into a dispatch table and wires it to an
// already-constructed ISO-TP transport. p2CANClient bounds how long Send
// waits for each response frame (spec.md §4.6); 0x78 response-pending
// frames restart the wait without counting against the caller.
func NewClient(t *isotp.Transport, services []odx.Service, p2CANClient time.Duration) *Client {
	return &Client{
		sender:      isotp.NewSender(t),
		receiver:    isotp.NewReceiver(t),
		table:       buildDispatchTable(services),
		p2CANClient: p2CANClient,
		logger:      logrus.WithField("component", "uds.client"),
	}
}

// IsTransmitting reports whether a Send is currently in flight, for a
// tester-present keep-alive to avoid colliding with it (spec.md §5;
// tester-present threading itself is out of scope per spec.md §1).
func (c *Client) IsTransmitting() bool {
	return c.transmitting.Load()
}

// Stats returns a snapshot of the most recently completed Send's timing
// bookkeeping (spec.md §4.6 supplement).
func (c *Client) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// Send implements the send(pdu, response_required, functional) contract
// of spec.md §4.6: acquire the send mutex, hand pdu to the ISO-TP sender,
// and — unless functional — loop on the receiver absorbing 0x78
// response-pending frames until a terminal PDU arrives or p2CANClient
// elapses.
func (c *Client) Send(ctx context.Context, pdu []byte, responseRequired bool, functional bool) ([]byte, error) {
	c.sendMu.Lock()
	c.transmitting.Store(true)
	defer func() {
		c.transmitting.Store(false)
		c.sendMu.Unlock()
	}()

	start := timeNow()
	if err := c.sender.Send(ctx, pdu, functional); err != nil {
		return nil, err
	}

	if functional {
		responseRequired = false
	}
	if !responseRequired {
		return nil, nil
	}

	var pendingGaps []time.Duration
	var previous *time.Duration

	for {
		recvCtx, cancel := context.WithTimeout(ctx, c.p2CANClient)
		response, err := c.receiver.Receive(recvCtx)
		cancel()
		if err != nil {
			return nil, err
		}
		if len(response) < 1 {
			return nil, ErrResponseTooShort
		}

		if isResponsePending(response) {
			elapsed := timeSince(start)
			if previous == nil {
				pendingGaps = append(pendingGaps, elapsed)
			} else {
				pendingGaps = append(pendingGaps, elapsed-*previous)
			}
			previous = &elapsed
			c.logger.WithField("elapsed", elapsed).Debug("response pending, continuing wait")
			continue
		}

		c.statsMu.Lock()
		c.stats = Stats{LastRespTime: timeSince(start), LastPendingGaps: pendingGaps}
		c.statsMu.Unlock()
		return response, nil
	}
}

// isResponsePending reports whether response is a 0x78 "response pending"
// negative response ([0x7F, SID, 0x78, ...]), which spec.md §4.6 says is
// absorbed by the session and never surfaces to the caller.
func isResponsePending(response []byte) bool {
	return len(response) >= 3 && response[0] == 0x7F && response[2] == 0x78
}

// timeNow/timeSince are indirections over time.Now so the session's
// elapsed-time bookkeeping stays testable without a real clock dependency.
var timeNow = time.Now

func timeSince(t time.Time) time.Duration {
	return timeNow().Sub(t)
}
