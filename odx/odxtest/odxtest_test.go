package odxtest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samsamfire/govuds/odx"
)

const fixture = `
[F18C]
Service = ReadDataByIdentifier
SID = 0x22
PosSID = 0x62
PosSIDLength = 1
DIDLength = 2
ParamName = ECU_Serial_Number
ParamKind = Standard
ParamByteLength = 16
ParamBaseDataType = A_ASCIISTRING

[0294]
Service = ReadDataByIdentifier
SID = 0x22
PosSID = 0x62
ParamName = PartNumber
ParamKind = MinMaxZero
ParamMin = 1
ParamMax = 15
ParamBaseDataType = A_ASCIISTRING
`

func TestLoadBuildsServiceWithMultipleDIDs(t *testing.T) {
	services, err := Load(strings.NewReader(fixture))
	require.NoError(t, err)
	require.Len(t, services, 1)

	svc := services[0]
	assert.Equal(t, "ReadDataByIdentifier", svc.ShortName)
	assert.Equal(t, byte(0x22), svc.SID)
	require.Len(t, svc.PosResponses, 2)
	assert.Equal(t, uint16(0xF18C), svc.PosResponses[0].DID)
	assert.Equal(t, uint16(0x0294), svc.PosResponses[1].DID)
}

func TestLoadedFixtureDecodesLikeHandWritten(t *testing.T) {
	services, err := Load(strings.NewReader(fixture))
	require.NoError(t, err)
	svc := services[0]

	response := append([]byte{0x62, 0xF1, 0x8C}, []byte("ABC0011223344556")...)
	dec := odx.Decoder{PositiveSID: 0x62}
	got, err := dec.Decode(response, []*odx.PosResponse{svc.PosResponses[0]})
	require.NoError(t, err)
	assert.Equal(t, "ABC0011223344556", got[0]["ECU_Serial_Number"])
}

func TestLoadRejectsUnknownParamKind(t *testing.T) {
	bad := `
[F18C]
Service = ReadDataByIdentifier
SID = 0x22
PosSID = 0x62
ParamName = X
ParamKind = Bogus
`
	_, err := Load(strings.NewReader(bad))
	assert.Error(t, err)
}
