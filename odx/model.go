// Package odx holds the compiled, in-memory ODX service model — services,
// requests, positive/negative responses, diagnostic-coded types — and the
// response decoder that walks a raw UDS response against it (spec.md
// §3/§4.4/§4.5). Loading an actual ODX XML file is out of scope (spec.md
// §1); callers build a []Service however they like (hand-written, a test
// fixture loader, or a real XML parser downstream) and hand it to the
// uds package's dispatch table.
package odx

import "encoding/binary"

// TransmissionMode distinguishes services that expect a reply from
// send-only ones (spec.md §3 Service.transmission_mode).
type TransmissionMode int

const (
	RequestResponse TransmissionMode = iota
	SendOnly
)

// BaseDataType names the ODX BASE-DATA-TYPE that drives decode rules
// (spec.md §3/§4.5 step 4).
type BaseDataType string

const (
	ASCIIString BaseDataType = "A_ASCIISTRING"
	Uint32      BaseDataType = "A_UINT32"
)

// Service is one compiled UDS service: its SID, its request template, and
// its expected positive/negative responses (spec.md §3 Service).
type Service struct {
	ShortName        string
	SID              byte
	TransmissionMode TransmissionMode
	Request          *Request
	PosResponses     []*PosResponse
	NegResponse      *NegativeResponseSpec
}

// Request is the ordered parameter list of a UDS request (spec.md §3
// Request). For RDBI/WDBI, Params holds one entry per requested DID with
// CodedValue set to its big-endian 2-byte identifier.
type Request struct {
	SID    byte
	Params []RequestParam
}

// RequestParam is a fixed-value request field: the SID itself, or a DID.
type RequestParam struct {
	ShortName  string
	CodedValue []byte
}

// BuildRDBIRequest concatenates the service SID with each DID as two
// big-endian bytes, in the given order (spec.md §4.4 "Request construction for
// Read Data By Identifier").
func BuildRDBIRequest(sid byte, dids ...uint16) []byte {
	out := make([]byte, 0, 1+2*len(dids))
	out = append(out, sid)
	for _, did := range dids {
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], did)
		out = append(out, buf[:]...)
	}
	return out
}

// PosResponse is the expected positive reply structure for one DID (spec.md
// §3 PosResponse / §4.5).
type PosResponse struct {
	SIDLength int
	SID       byte
	DIDLength int
	DID       uint16
	Params    []*Param
}

// Param is one decoded field of a PosResponse (spec.md §3 Param).
type Param struct {
	ShortName     string
	BytePosition  int
	DiagCodedType DiagCodedType
	BaseDataType  BaseDataType

	// Data holds the raw bytes assigned by the decoder walk (§4.5 step 3),
	// including the termination byte if any; Decode() strips it.
	Data []byte
}

// NegativeResponseSpec identifies and decodes a 0x7F negative response
// (spec.md §3 NegativeResponseSpec).
type NegativeResponseSpec struct {
	SID       byte
	NRCLabels map[byte]string
}

// Match checks whether response is a negative response for this service's
// SID and, if so, returns the decoded NegativeResponse. The matcher
// contract is total: it never errors (spec.md §4.6 "the matcher contract
// is total — it never throws").
func (n *NegativeResponseSpec) Match(response []byte) (NegativeResponse, bool) {
	if len(response) < 3 || response[0] != 0x7F || response[1] != n.SID {
		return NegativeResponse{}, false
	}
	nrc := response[2]
	label := ""
	if n.NRCLabels != nil {
		label = n.NRCLabels[nrc]
	}
	return NegativeResponse{NRC: nrc, NRCLabel: label}, true
}

// NegativeResponse is a structured, non-error value (spec.md §7 "NOT an
// error") carrying a UDS negative response code and optional label.
type NegativeResponse struct {
	NRC      byte
	NRCLabel string
}
