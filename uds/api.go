package uds

import (
	"context"
	"fmt"

	"github.com/samsamfire/govuds/odx"
)

// Result is the outcome of a typed service call: exactly one of Decoded or
// Negative is populated. The negative-response contract is total — it is
// a value, never an error (spec.md §4.6/§7/§9).
type Result struct {
	Decoded  []odx.Decoded
	Negative *odx.NegativeResponse
}

// ReadDataByIdentifier issues a 0x22 request for the given DIDs, in order,
// and decodes the response against the compiled "ReadDataByIdentifier"
// dispatch-table entry (spec.md §4.4/§4.5/§4.6). The dispatch table
// replaces the source's dynamically-bound readDataByIdentifier method
// (spec.md §9).
func (c *Client) ReadDataByIdentifier(ctx context.Context, dids ...uint16) (Result, error) {
	return c.callService(ctx, "ReadDataByIdentifier", dids, nil)
}

// WriteDataByIdentifier issues a 0x2E request writing data[did] for each
// DID in dids, in order (spec.md §4.4 supplemental note: the model is
// generic over SID, so WDBI reuses the same request-building and
// negative-response machinery as RDBI).
func (c *Client) WriteDataByIdentifier(ctx context.Context, dids []uint16, data map[uint16][]byte) (Result, error) {
	return c.callService(ctx, "WriteDataByIdentifier", dids, data)
}

func (c *Client) callService(ctx context.Context, shortName string, dids []uint16, data map[uint16][]byte) (Result, error) {
	entry, ok := c.table[shortName]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownService, shortName)
	}

	request := entry.buildReq(dids, data)
	response, err := c.Send(ctx, request, true, false)
	if err != nil {
		return Result{}, err
	}

	if entry.negResponse != nil {
		if neg, isNeg := entry.negResponse.Match(response); isNeg {
			return Result{Negative: &neg}, nil
		}
	}

	responses, err := entry.responsesFor(dids)
	if err != nil {
		return Result{}, err
	}
	decoded, err := (odx.Decoder{PositiveSID: entry.posSID}).Decode(response, responses)
	if err != nil {
		return Result{}, err
	}
	return Result{Decoded: decoded}, nil
}
