package uds

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samsamfire/govuds/isotp"
	"github.com/samsamfire/govuds/odx"
)

const (
	clientReqID = 0x7E0
	clientResID = 0x7E8
)

// newLoopbackClientAndECU wires a uds.Client (the device under test) to a
// bare isotp sender/receiver pair standing in for the ECU, back to back
// over an in-process loopback (mirrors isotp/sender_receiver_test.go's
// newLoopbackTransports).
func newLoopbackClientAndECU(t *testing.T, services []odx.Service, p2 time.Duration) (*Client, *isotp.Sender, *isotp.Receiver) {
	t.Helper()
	clientAdapter, ecuAdapter := newLoopbackPair()

	clientCfg := isotp.DefaultConfig(clientReqID, clientResID)
	ecuCfg := isotp.DefaultConfig(clientResID, clientReqID)
	clientCfg.ReceiverSTmin = 0.001
	ecuCfg.ReceiverSTmin = 0.001

	clientTransport, err := isotp.NewTransport(clientAdapter, clientCfg, 64)
	require.NoError(t, err)
	ecuTransport, err := isotp.NewTransport(ecuAdapter, ecuCfg, 64)
	require.NoError(t, err)

	client := NewClient(clientTransport, services, p2)
	ecuSender := isotp.NewSender(ecuTransport)
	ecuReceiver := isotp.NewReceiver(ecuTransport)
	return client, ecuSender, ecuReceiver
}

func rdbiServiceFixture() odx.Service {
	pr := &odx.PosResponse{
		SIDLength: 1, SID: 0x62, DIDLength: 2, DID: 0xF18C,
		Params: []*odx.Param{{
			ShortName:     "ECU_Serial_Number",
			DiagCodedType: odx.DiagCodedType{Kind: odx.StandardLengthKind, ByteLength: 16},
			BaseDataType:  odx.ASCIIString,
		}},
	}
	return odx.Service{
		ShortName:    "ReadDataByIdentifier",
		SID:          0x22,
		PosResponses: []*odx.PosResponse{pr},
		NegResponse:  &odx.NegativeResponseSpec{SID: 0x22},
	}
}

// Scenario 1 (spec.md §8): single-frame RDBI round trip through the full
// session layer.
func TestClientReadDataByIdentifierSingleFrame(t *testing.T) {
	client, ecuSender, ecuReceiver := newLoopbackClientAndECU(t, []odx.Service{rdbiServiceFixture()}, time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		req, err := ecuReceiver.Receive(context.Background())
		require.NoError(t, err)
		require.Equal(t, []byte{0x22, 0xF1, 0x8C}, req)

		response := append([]byte{0x62, 0xF1, 0x8C}, []byte("ABC0011223344556")...)
		require.NoError(t, ecuSender.Send(context.Background(), response, false))
	}()

	result, err := client.ReadDataByIdentifier(context.Background(), 0xF18C)
	require.NoError(t, err)
	<-done

	require.Nil(t, result.Negative)
	require.Len(t, result.Decoded, 1)
	require.Equal(t, "ABC0011223344556", result.Decoded[0]["ECU_Serial_Number"])
}

// Scenario 5 (spec.md §8): negative response is a value, not an error.
func TestClientReadDataByIdentifierNegativeResponse(t *testing.T) {
	client, ecuSender, ecuReceiver := newLoopbackClientAndECU(t, []odx.Service{rdbiServiceFixture()}, time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := ecuReceiver.Receive(context.Background())
		require.NoError(t, err)
		require.NoError(t, ecuSender.Send(context.Background(), []byte{0x7F, 0x22, 0x13}, false))
	}()

	result, err := client.ReadDataByIdentifier(context.Background(), 0xF18C)
	require.NoError(t, err)
	<-done

	require.Nil(t, result.Decoded)
	require.NotNil(t, result.Negative)
	require.Equal(t, byte(0x13), result.Negative.NRC)
	require.Equal(t, "", result.Negative.NRCLabel)
}

// 0x78 response-pending frames are absorbed by Send and never surface to
// the caller (spec.md §4.6/§7).
func TestClientAbsorbsResponsePending(t *testing.T) {
	client, ecuSender, ecuReceiver := newLoopbackClientAndECU(t, []odx.Service{rdbiServiceFixture()}, time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := ecuReceiver.Receive(context.Background())
		require.NoError(t, err)

		require.NoError(t, ecuSender.Send(context.Background(), []byte{0x7F, 0x22, 0x78}, false))
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, ecuSender.Send(context.Background(), []byte{0x7F, 0x22, 0x78}, false))
		time.Sleep(20 * time.Millisecond)

		response := append([]byte{0x62, 0xF1, 0x8C}, []byte("ABC0011223344556")...)
		require.NoError(t, ecuSender.Send(context.Background(), response, false))
	}()

	result, err := client.ReadDataByIdentifier(context.Background(), 0xF18C)
	require.NoError(t, err)
	<-done

	require.Nil(t, result.Negative)
	require.Equal(t, "ABC0011223344556", result.Decoded[0]["ECU_Serial_Number"])

	stats := client.Stats()
	require.Len(t, stats.LastPendingGaps, 2)
	require.Greater(t, stats.LastRespTime, time.Duration(0))
}

func TestClientIsTransmittingDuringSend(t *testing.T) {
	client, ecuSender, ecuReceiver := newLoopbackClientAndECU(t, []odx.Service{rdbiServiceFixture()}, time.Second)
	require.False(t, client.IsTransmitting())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := ecuReceiver.Receive(context.Background())
		require.NoError(t, err)
		require.True(t, client.IsTransmitting())
		time.Sleep(10 * time.Millisecond)
		response := append([]byte{0x62, 0xF1, 0x8C}, []byte("ABC0011223344556")...)
		require.NoError(t, ecuSender.Send(context.Background(), response, false))
	}()

	_, err := client.ReadDataByIdentifier(context.Background(), 0xF18C)
	require.NoError(t, err)
	<-done
	require.False(t, client.IsTransmitting())
}

// A zero-length PDU can't even be checked for 0x7F/0x78, so Send rejects
// it outright rather than handing an empty slice to the dispatch table's
// negative-response matcher or the odx decoder.
func TestClientRejectsEmptyResponse(t *testing.T) {
	client, ecuSender, ecuReceiver := newLoopbackClientAndECU(t, []odx.Service{rdbiServiceFixture()}, time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := ecuReceiver.Receive(context.Background())
		require.NoError(t, err)
		require.NoError(t, ecuSender.Send(context.Background(), []byte{}, false))
	}()

	_, err := client.ReadDataByIdentifier(context.Background(), 0xF18C)
	<-done
	require.ErrorIs(t, err, ErrResponseTooShort)
}

func TestClientUnknownServiceReturnsError(t *testing.T) {
	client, _, _ := newLoopbackClientAndECU(t, nil, time.Second)
	_, err := client.ReadDataByIdentifier(context.Background(), 0xF18C)
	require.ErrorIs(t, err, ErrUnknownService)
}
