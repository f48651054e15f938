package odx

import "fmt"

// Termination names the ODX TERMINATION attribute of a MinMaxLengthType
// (spec.md §3 DiagCodedType.MinMaxLengthType.termination).
type Termination int

const (
	TerminationZero Termination = iota
	TerminationHexFF
	TerminationEndOfPDU
)

// absoluteLengthCap bounds an unbounded (max_length absent) ZERO/HEX-FF
// scan so a malformed ECU response can't stall the decoder (spec.md §9
// Open Question: "implementers should enforce an absolute cap... to
// preserve liveness").
const absoluteLengthCap = 4095

// DiagCodedType is the closed sum type describing how to compute a
// Param's byte length from a response (spec.md §3 DiagCodedType). It is
// modeled as a tagged struct rather than an interface hierarchy, per
// spec.md §9's "tagged variant, not a class hierarchy with virtual
// dispatch" design note — CalculateLength is an exhaustive switch, not a
// virtual method resolved per concrete type.
type DiagCodedType struct {
	Kind DiagCodedKind

	// StandardLengthType fields
	ByteLength int

	// MinMaxLengthType fields
	MinLength    int
	MaxLength    int // 0 with MaxLengthSet=false means "absent" (nullable in spec.md §3)
	MaxLengthSet bool
	Termination  Termination
}

// DiagCodedKind tags which variant of DiagCodedType is populated.
type DiagCodedKind int

const (
	StandardLengthKind DiagCodedKind = iota
	MinMaxLengthKind
)

// TerminationByteLength is the byte length consumed by the termination
// marker itself, 1 for ZERO/HEX-FF, 0 for END-OF-PDU (which has none) —
// mirrors diag_coded_types.py's get_termination_length.
func (t Termination) TerminationByteLength() int {
	if t == TerminationEndOfPDU {
		return 0
	}
	return 1
}

func (t Termination) byteValue() byte {
	switch t {
	case TerminationZero:
		return 0x00
	case TerminationHexFF:
		return 0xFF
	default:
		return 0
	}
}

// CalculateLength computes the byte length (excluding the preceding DID)
// of this param's value within remaining, the response slice starting at
// this param's cursor position (spec.md §4.5 step 3). It translates
// diag_coded_types.py's DiagCodedType.calculate_length faithfully,
// including its scan-and-raise ordering for ZERO/HEX-FF.
func (d DiagCodedType) CalculateLength(remaining []byte) (int, error) {
	switch d.Kind {
	case StandardLengthKind:
		return d.ByteLength, nil

	case MinMaxLengthKind:
		if d.Termination == TerminationEndOfPDU {
			if !d.MaxLengthSet {
				return len(remaining), nil
			}
			if len(remaining) < d.MaxLength {
				return len(remaining), nil
			}
			return d.MaxLength, nil
		}

		termByte := d.Termination.byteValue()
		capLen := absoluteLengthCap
		if d.MaxLengthSet && d.MaxLength < capLen {
			capLen = d.MaxLength
		}
		for i, v := range remaining {
			if v == termByte {
				if i < d.MinLength {
					return 0, fmt.Errorf("%w: terminator at %d, min %d", ErrResponseTooShort, i, d.MinLength)
				}
				return i + 1, nil
			}
			if i == capLen {
				return 0, fmt.Errorf("%w (%d)", ErrResponseTooLong, capLen)
			}
		}
		return 0, fmt.Errorf("%w (%d)", ErrResponseTooLong, capLen)

	default:
		return 0, fmt.Errorf("odx: unknown diag coded type kind %d", d.Kind)
	}
}
