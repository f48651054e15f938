package isotp

import "errors"

// Sentinel errors for the ISO-TP layer (spec.md §7). Compare with
// errors.Is; ProtocolError wraps these with frame-level context.
var (
	ErrPayloadTooLarge         = errors.New("isotp: payload exceeds 4095 bytes")
	ErrTimeoutFlowControl      = errors.New("isotp: no flow control before timeout")
	ErrTimeoutRx               = errors.New("isotp: no frame contributing to the PDU before timeout")
	ErrProtocolWaitUnsupported = errors.New("isotp: flow status WAIT is not supported")
	ErrProtocolOverflow        = errors.New("isotp: flow status OVERFLOW received")
	ErrProtocolUnexpectedFC    = errors.New("isotp: unexpected frame or flow status while waiting for flow control")
	ErrProtocolCfSequence      = errors.New("isotp: consecutive frame sequence number mismatch")
	ErrFunctionalMultiFrame    = errors.New("isotp: functional (broadcast) requests cannot be multi-frame")
)

// ProtocolError wraps a sentinel error with the state and raw frame that
// triggered it, mirroring pkg/sdo/common.go's SDOAbortCode plus description
// map pattern translated into Go's wrapped-error idiom.
type ProtocolError struct {
	Err   error
	State string
	Frame []byte
}

func (e *ProtocolError) Error() string {
	return e.Err.Error() + " (state=" + e.State + ")"
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func wrapProtoErr(err error, state string, frame []byte) *ProtocolError {
	return &ProtocolError{Err: err, State: state, Frame: frame}
}
