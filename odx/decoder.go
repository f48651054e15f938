package odx

import (
	"encoding/binary"
	"fmt"
)

// Decoded is one DID's decoded result: a short-name to value mapping
// (spec.md §4.5 step 5 "{ param_short_name -> decoded_value }").
type Decoded map[string]any

// Decoder walks a raw UDS response against an ordered list of PosResponse
// descriptions (one per requested DID, in request order) and decodes each
// parameter. It is the Go translation of pos_response.py's
// parse_did_response_length/decode/check_DID_in_response, per spec.md
// §4.5.
type Decoder struct {
	PositiveSID byte // e.g. 0x62 for RDBI
}

// Sentinel errors (spec.md §7).
var (
	ErrBadResponseSID   = fmt.Errorf("odx: response SID mismatch")
	ErrBadDID           = fmt.Errorf("odx: response DID mismatch")
	ErrResponseTooShort = fmt.Errorf("odx: response shorter than expected")
	ErrResponseTooLong  = fmt.Errorf("odx: response longer than expected max length")
)

// Decode walks response against responses (one PosResponse per requested
// DID, in order) and returns one Decoded map per DID, in the same order
// (spec.md §4.5, "Batch order" testable property in §8).
func (dec Decoder) Decode(response []byte, responses []*PosResponse) ([]Decoded, error) {
	if len(responses) == 0 {
		return nil, nil
	}

	sidLength := responses[0].SIDLength
	if len(response) < sidLength {
		return nil, ErrResponseTooShort
	}
	gotSID := bigEndianUint(response[:sidLength])
	if byte(gotSID) != dec.PositiveSID {
		return nil, ErrBadResponseSID
	}

	cursor := sidLength
	results := make([]Decoded, 0, len(responses))

	for _, pr := range responses {
		if len(response) < cursor+pr.DIDLength {
			return nil, ErrResponseTooShort
		}
		gotDID := uint16(bigEndianUint(response[cursor : cursor+pr.DIDLength]))
		if gotDID != pr.DID {
			return nil, ErrBadDID
		}
		cursor += pr.DIDLength

		for _, param := range pr.Params {
			remaining := response[cursor:]
			length, err := param.DiagCodedType.CalculateLength(remaining)
			if err != nil {
				return nil, fmt.Errorf("odx: param %q: %w", param.ShortName, err)
			}
			if cursor+length > len(response) {
				return nil, ErrResponseTooShort
			}
			param.Data = append([]byte(nil), response[cursor:cursor+length]...)
			cursor += length
		}

		decoded := make(Decoded, len(pr.Params))
		for _, param := range pr.Params {
			decoded[param.ShortName] = param.decode()
		}
		results = append(results, decoded)
	}

	return results, nil
}

// decode applies the base_data_type decode rule to Param.Data, stripping
// the termination byte for ZERO/HEX-FF MinMaxLengthType params first
// (spec.md §4.5 step 4; mirrors param.py's Param.decode).
func (p *Param) decode() any {
	data := p.Data
	if p.DiagCodedType.Kind == MinMaxLengthKind && p.DiagCodedType.Termination != TerminationEndOfPDU {
		if len(data) > 0 {
			data = data[:len(data)-1]
		}
	}

	switch p.BaseDataType {
	case ASCIIString:
		return string(data)
	case Uint32:
		return append([]byte(nil), data...)
	default:
		return append([]byte(nil), data...)
	}
}

func bigEndianUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	default:
		var v uint64
		for _, x := range b {
			v = v<<8 | uint64(x)
		}
		return v
	}
}
