package isotp

import "time"

// Config holds the immutable-after-init ISO-TP transport parameters for
// one client/ECU pairing (spec.md §3 IsoTpConfig).
type Config struct {
	ReqID           uint32
	ResID           uint32
	AddressingMode  AddressingMode
	NAE             byte // address extension, MIXED
	MessageType     MessageType
	DiscardNegResp  bool
	PaddingByte     byte
	CANFD           bool
	FlowControlWait time.Duration // default 1s, timer while WAIT_FLOW_CONTROL
	RxTimeout       time.Duration // default 1s, restarted per frame; not derived from p2_can_client
	ReceiverBS      byte          // BS this client advertises in its own FC (default 0: no block limit)
	ReceiverSTmin   float64       // STmin (seconds) this client advertises in its own FC (default 0.03)
}

// DefaultConfig returns sensible defaults matching the ISO-TP spec and the
// values spec.md §4.2/§4.3 calls out explicitly.
func DefaultConfig(reqID, resID uint32) Config {
	return Config{
		ReqID:           reqID,
		ResID:           resID,
		AddressingMode:  Normal,
		MessageType:     Diagnostics,
		PaddingByte:     0x00,
		FlowControlWait: time.Second,
		RxTimeout:       time.Millisecond * 1000,
		ReceiverBS:      0,
		ReceiverSTmin:   0.03,
	}
}

const (
	// maxPduLength is the ISO-TP maximum PDU length (12-bit length field).
	maxPduLength = 4095
	// maxBlockSizeZero bounds a BS=0 ("all remaining") block to avoid an
	// unbounded run of CFs if the ECU never sends another FC; it matches
	// the source's internal safety sentinel (see DESIGN.md Open Question 1).
	maxBlockSizeZero = 585
)
