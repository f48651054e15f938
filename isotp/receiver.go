package isotp

import (
	"context"

	"github.com/sirupsen/logrus"
)

// receiverState is the ISO-TP receiver state machine (spec.md §3/§4.3).
type receiverState int

const (
	receiverIdle receiverState = iota
	receiverSendFlowControl
	receiverReceivingConsecutiveFrame
)

// Receiver drives the ISO-TP receiver state machine for one Transport.
type Receiver struct {
	t      *Transport
	fb     *frameBuilder
	logger *logrus.Entry
}

// NewReceiver builds a Receiver bound to t.
func NewReceiver(t *Transport) *Receiver {
	return &Receiver{
		t:      t,
		fb:     newFrameBuilder(t.cfg),
		logger: logrus.WithField("component", "isotp.receiver"),
	}
}

// Receive reassembles one UDS PDU from the ingress queue (spec.md §4.3).
// Unexpected frames (CF while IDLE, FF mid-stream) are logged and dropped
// without resetting the state machine, per spec.md §4.3.
func (r *Receiver) Receive(ctx context.Context) ([]byte, error) {
	rxCtx, cancel := context.WithTimeout(ctx, r.t.cfg.RxTimeout)
	defer func() { cancel() }()

	state := receiverIdle
	var payload []byte
	var totalLen int
	expectedSeq := byte(1)

	for {
		frame, ok := r.t.queue.Pop(rxCtx)
		if !ok {
			r.t.queue.Drain()
			return nil, ErrTimeoutRx
		}

		d, err := r.fb.decodePCI(frame.Data)
		if err != nil {
			r.logger.WithError(err).Warn("dropping malformed frame")
			continue
		}

		switch state {
		case receiverIdle:
			switch d.kind {
			case pciSingleFrame:
				end := d.dataOff + d.sfLen
				if end > len(frame.Data) {
					r.logger.Warn("dropping truncated single frame")
					continue
				}
				return append([]byte{}, frame.Data[d.dataOff:end]...), nil
			case pciFirstFrame:
				totalLen = d.ffTotal
				payload = append(payload, frame.Data[d.dataOff:]...)
				if err := r.sendFlowControl(); err != nil {
					return nil, err
				}
				state = receiverReceivingConsecutiveFrame
				rxCtx, cancel = r.restartTimer(ctx, cancel)
			default:
				r.logger.WithField("kind", d.kind).Debug("dropping unexpected frame in IDLE")
			}

		case receiverReceivingConsecutiveFrame:
			if d.kind != pciConsecutiveFrame {
				r.logger.WithField("kind", d.kind).Debug("dropping unexpected frame mid-reassembly")
				continue
			}
			if d.seq != expectedSeq {
				return nil, wrapProtoErr(ErrProtocolCfSequence, "RECEIVING_CONSECUTIVE_FRAME", frame.Data)
			}
			expectedSeq = (expectedSeq + 1) % 16
			payload = append(payload, frame.Data[d.dataOff:]...)
			rxCtx, cancel = r.restartTimer(ctx, cancel)

			if len(payload) >= totalLen {
				return payload[:totalLen], nil
			}
		}
	}
}

func (r *Receiver) restartTimer(parent context.Context, cancelPrev context.CancelFunc) (context.Context, context.CancelFunc) {
	cancelPrev()
	return context.WithTimeout(parent, r.t.cfg.RxTimeout)
}

func (r *Receiver) sendFlowControl() error {
	stmin, err := EncodeSTmin(r.t.cfg.ReceiverSTmin)
	if err != nil {
		return err
	}
	frame := r.fb.MakeFlowControl(FlowStatusContinueToSend, r.t.cfg.ReceiverBS, stmin)
	return r.t.send(frame)
}
