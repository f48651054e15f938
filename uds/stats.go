package uds

import "time"

// Stats carries the per-request timing bookkeeping the source's send()
// accumulates on self (last_resp_time, last_pending_resp_times), kept here
// as a supplemental observability feature (spec.md §4.6 supplement; see
// SPEC_FULL.md §4.6). Pure bookkeeping — never consulted by Send itself.
type Stats struct {
	// LastRespTime is the elapsed time from request transmission to the
	// final (non-pending) response, or zero if no request has completed.
	LastRespTime time.Duration

	// LastPendingGaps holds one entry per 0x78 response-pending frame of
	// the most recent request: the first measured from request
	// transmission, each later one from the previous 0x78 frame, mirroring
	// original_source/uds/uds_communications/Uds/Uds.py's
	// last_pending_resp_times list.
	LastPendingGaps []time.Duration
}
