package uds

import "github.com/samsamfire/govuds/odx"

// requestBuilder constructs the request PDU for one or more DIDs. It is a
// data-driven closure capturing the service's literal SID byte, not a
// runtime-compiled method (spec.md §9: "build these as data-driven
// closures... that carry the literal byte prefixes... as captured
// fields" — replacing the source's exec()-based
// ReadDataByIdentifierMethodFactory/WriteDataByIdentifierMethodFactory).
type requestBuilder func(dids []uint16, data map[uint16][]byte) []byte

// serviceEntry is one row of the dispatch table: everything needed to
// build a request and interpret its response for one UDS service,
// compiled once at Client construction from an []odx.Service (spec.md §9
// "dispatch table").
type serviceEntry struct {
	shortName   string
	buildReq    requestBuilder
	posSID      byte
	negResponse *odx.NegativeResponseSpec
	// responsesFor returns, for the given ordered DIDs, the PosResponse
	// descriptors to decode against — a subset/reordering of the
	// service's compiled PosResponses matching the request.
	responsesFor func(dids []uint16) ([]*odx.PosResponse, error)
}

// buildDispatchTable compiles an []odx.Service into the map the Client
// indexes at Send time, by service short name (spec.md §9).
func buildDispatchTable(services []odx.Service) map[string]*serviceEntry {
	table := make(map[string]*serviceEntry, len(services))
	for i := range services {
		svc := services[i]
		byDID := make(map[uint16]*odx.PosResponse, len(svc.PosResponses))
		for _, pr := range svc.PosResponses {
			byDID[pr.DID] = pr
		}

		entry := &serviceEntry{
			shortName:   svc.ShortName,
			posSID:      positiveSIDOf(svc),
			negResponse: svc.NegResponse,
			buildReq: func(dids []uint16, data map[uint16][]byte) []byte {
				return buildRequestFor(svc.SID, dids, data)
			},
			responsesFor: func(dids []uint16) ([]*odx.PosResponse, error) {
				out := make([]*odx.PosResponse, 0, len(dids))
				for _, did := range dids {
					pr, ok := byDID[did]
					if !ok {
						return nil, ErrUnknownService
					}
					out = append(out, pr)
				}
				return out, nil
			},
		}
		table[svc.ShortName] = entry
	}
	return table
}

// positiveSIDOf reads the positive-response SID off the service's first
// PosResponse (all PosResponses of a service share the same response SID
// by construction, per the ODX data model — spec.md §3).
func positiveSIDOf(svc odx.Service) byte {
	if len(svc.PosResponses) == 0 {
		return svc.SID + 0x40
	}
	return svc.PosResponses[0].SID
}

// buildRequestFor builds a request PDU for sid against dids, attaching
// data[did] as trailing write bytes when present (WriteDataByIdentifier);
// a plain read request when data is nil or empty for that DID.
func buildRequestFor(sid byte, dids []uint16, data map[uint16][]byte) []byte {
	out := make([]byte, 0, 1+3*len(dids))
	out = append(out, sid)
	for _, did := range dids {
		out = append(out, byte(did>>8), byte(did))
		if v, ok := data[did]; ok {
			out = append(out, v...)
		}
	}
	return out
}
