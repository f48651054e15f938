package isotp

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// senderState is the ISO-TP sender state machine (spec.md §3/§4.2),
// modeled as a private enum the way pkg/sdo/common.go models SDOState.
type senderState int

const (
	senderIdle senderState = iota
	senderSendSingleFrame
	senderSendFirstFrame
	senderWaitFlowControl
	senderSendConsecutiveFrame
)

// Sender drives the ISO-TP sender state machine for one Transport.
type Sender struct {
	t      *Transport
	fb     *frameBuilder
	logger *logrus.Entry
}

// NewSender builds a Sender bound to t.
func NewSender(t *Transport) *Sender {
	return &Sender{
		t:      t,
		fb:     newFrameBuilder(t.cfg),
		logger: logrus.WithField("component", "isotp.sender"),
	}
}

// Send segments pdu into CAN frames and drives the handshake to
// completion, honoring received flow control (spec.md §4.2 algorithm).
// functional marks a broadcast request; multi-frame functional requests
// are rejected per spec.md §4.2.
func (s *Sender) Send(ctx context.Context, pdu []byte, functional bool) error {
	if len(pdu) > maxPduLength {
		return ErrPayloadTooLarge
	}

	maxPdu := MaxPduLength(s.t.cfg.AddressingMode)

	if len(pdu) < maxPdu {
		return s.sendSingleFrame(pdu)
	}

	if functional {
		return ErrFunctionalMultiFrame
	}

	return s.sendMultiFrame(ctx, pdu)
}

func (s *Sender) sendSingleFrame(pdu []byte) error {
	frame, err := s.fb.MakeSingleFrame(pdu)
	if err != nil {
		return err
	}
	s.logger.WithField("len", len(pdu)).Debug("sending single frame")
	return s.t.send(frame)
}

func (s *Sender) sendMultiFrame(ctx context.Context, pdu []byte) error {
	maxPdu := MaxPduLength(s.t.cfg.AddressingMode)

	ffFrame, consumed := s.fb.MakeFirstFrame(pdu, len(pdu))
	if err := s.t.send(ffFrame); err != nil {
		return err
	}
	s.logger.WithField("total", len(pdu)).Debug("sent first frame")

	remaining := pdu[consumed:]
	seq := byte(1)

	for len(remaining) > 0 {
		bs, stmin, err := s.waitFlowControl(ctx)
		if err != nil {
			return err
		}

		limit := int(bs)
		if bs == 0 {
			limit = maxBlockSizeZero
		}

		stminDur := time.Duration(stmin * float64(time.Second))
		sent := 0
		for len(remaining) > 0 && sent < limit {
			n := maxPdu
			if n > len(remaining) {
				n = len(remaining)
			}
			cfFrame := s.fb.MakeConsecutiveFrame(remaining[:n], seq)
			if err := s.t.send(cfFrame); err != nil {
				return err
			}
			remaining = remaining[n:]
			seq = (seq + 1) % 16
			sent++

			if len(remaining) > 0 && sent < limit {
				if err := sleepOrDone(ctx, stminDur); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// waitFlowControl blocks for one FC frame, applying the flow-control wait
// timer (spec.md §4.2 step 2/3). Returns the decoded BS and STmin seconds.
func (s *Sender) waitFlowControl(ctx context.Context) (byte, float64, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.t.cfg.FlowControlWait)
	defer cancel()

	frame, ok := s.t.queue.Pop(waitCtx)
	if !ok {
		return 0, 0, ErrTimeoutFlowControl
	}

	d, err := s.fb.decodePCI(frame.Data)
	if err != nil {
		return 0, 0, err
	}
	if d.kind != pciFlowControl {
		return 0, 0, wrapProtoErr(ErrProtocolUnexpectedFC, "WAIT_FLOW_CONTROL", frame.Data)
	}

	switch d.fs {
	case FlowStatusContinueToSend:
		stmin, err := DecodeSTmin(d.stmin)
		if err != nil {
			return 0, 0, err
		}
		return d.bs, stmin, nil
	case FlowStatusWait:
		return 0, 0, ErrProtocolWaitUnsupported
	case FlowStatusOverflow:
		return 0, 0, ErrProtocolOverflow
	default:
		return 0, 0, wrapProtoErr(ErrProtocolUnexpectedFC, "WAIT_FLOW_CONTROL", frame.Data)
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
