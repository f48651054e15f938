package uds

import "errors"

// Sentinel errors for the session layer (spec.md §7). Transport/protocol
// errors from isotp and odx propagate through Send unwrapped; these are
// the session's own.
var (
	ErrUnknownService   = errors.New("uds: unknown service short name")
	ErrConfig           = errors.New("uds: invalid configuration")
	ErrResponseTooShort = errors.New("uds: response shorter than a SID byte")
)
