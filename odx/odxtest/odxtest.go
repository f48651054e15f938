// Package odxtest loads a compact ini-formatted DID/param table into
// []odx.Service values for use as test fixtures. It is not part of the
// production odx package — loading any ODX file format is explicitly out
// of scope for the core (spec.md §1) — but gives test code a declarative
// way to describe fixtures instead of hand-building Go literals for every
// case, adapting pkg/od/parser.go's ini.v1 section-iteration idiom from
// EDS/object-dictionary semantics to DID/param semantics.
//
// File shape: one section per DID, named by its 4-hex-digit identifier,
// e.g.:
//
//	[F18C]
//	Service = ReadDataByIdentifier
//	SID = 0x22
//	PosSID = 0x62
//	PosSIDLength = 1
//	DIDLength = 2
//	ParamName = ECU_Serial_Number
//	ParamKind = Standard
//	ParamByteLength = 17
//	ParamBaseDataType = A_ASCIISTRING
//
// MinMax params use ParamKind = MinMaxZero | MinMaxHexFF | MinMaxEndOfPDU,
// ParamMin, and (optionally) ParamMax.
package odxtest

import (
	"fmt"
	"io"
	"regexp"
	"strconv"

	"gopkg.in/ini.v1"

	"github.com/samsamfire/govuds/odx"
)

// readAll buffers r fully; ini.Load is given the resulting []byte rather
// than r directly since its accepted source kinds are string/[]byte/file,
// not an arbitrary io.Reader.
func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}

var matchDIDRegExp = regexp.MustCompile(`^[0-9A-Fa-f]{4}$`)

// Load reads r as an ini-formatted fixture and returns one odx.Service per
// distinct "Service" name encountered, each carrying the PosResponses
// built from its DID sections in file order.
func Load(r io.Reader) ([]odx.Service, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("odxtest: %w", err)
	}
	iniFile, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("odxtest: %w", err)
	}

	order := make([]string, 0, 4)
	bySID := make(map[string]*odx.Service)

	for _, section := range iniFile.Sections() {
		name := section.Name()
		if !matchDIDRegExp.MatchString(name) {
			continue
		}

		didVal, err := strconv.ParseUint(name, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("odxtest: section %q: %w", name, err)
		}

		serviceName := section.Key("Service").String()
		sid, err := parseHexByte(section.Key("SID").String())
		if err != nil {
			return nil, fmt.Errorf("odxtest: section %q: SID: %w", name, err)
		}
		posSID, err := parseHexByte(section.Key("PosSID").String())
		if err != nil {
			return nil, fmt.Errorf("odxtest: section %q: PosSID: %w", name, err)
		}
		posSIDLength, err := section.Key("PosSIDLength").Int()
		if err != nil {
			posSIDLength = 1
		}
		didLength, err := section.Key("DIDLength").Int()
		if err != nil {
			didLength = 2
		}

		param, err := parseParam(section)
		if err != nil {
			return nil, fmt.Errorf("odxtest: section %q: %w", name, err)
		}

		svc, ok := bySID[serviceName]
		if !ok {
			svc = &odx.Service{
				ShortName:   serviceName,
				SID:         sid,
				NegResponse: &odx.NegativeResponseSpec{SID: sid},
			}
			bySID[serviceName] = svc
			order = append(order, serviceName)
		}

		svc.PosResponses = append(svc.PosResponses, &odx.PosResponse{
			SIDLength: posSIDLength,
			SID:       posSID,
			DIDLength: didLength,
			DID:       uint16(didVal),
			Params:    []*odx.Param{param},
		})
	}

	services := make([]odx.Service, 0, len(order))
	for _, name := range order {
		services = append(services, *bySID[name])
	}
	return services, nil
}

func parseParam(section *ini.Section) (*odx.Param, error) {
	name := section.Key("ParamName").String()
	bdt := odx.BaseDataType(section.Key("ParamBaseDataType").String())

	switch section.Key("ParamKind").String() {
	case "", "Standard":
		byteLength, err := section.Key("ParamByteLength").Int()
		if err != nil {
			return nil, fmt.Errorf("ParamByteLength: %w", err)
		}
		return &odx.Param{
			ShortName:     name,
			DiagCodedType: odx.DiagCodedType{Kind: odx.StandardLengthKind, ByteLength: byteLength},
			BaseDataType:  bdt,
		}, nil

	case "MinMaxZero", "MinMaxHexFF", "MinMaxEndOfPDU":
		minLength, err := section.Key("ParamMin").Int()
		if err != nil {
			return nil, fmt.Errorf("ParamMin: %w", err)
		}
		dct := odx.DiagCodedType{Kind: odx.MinMaxLengthKind, MinLength: minLength}
		switch section.Key("ParamKind").String() {
		case "MinMaxZero":
			dct.Termination = odx.TerminationZero
		case "MinMaxHexFF":
			dct.Termination = odx.TerminationHexFF
		case "MinMaxEndOfPDU":
			dct.Termination = odx.TerminationEndOfPDU
		}
		if maxKey := section.Key("ParamMax"); maxKey.String() != "" {
			maxLength, err := maxKey.Int()
			if err != nil {
				return nil, fmt.Errorf("ParamMax: %w", err)
			}
			dct.MaxLength = maxLength
			dct.MaxLengthSet = true
		}
		return &odx.Param{ShortName: name, DiagCodedType: dct, BaseDataType: bdt}, nil

	default:
		return nil, fmt.Errorf("unknown ParamKind %q", section.Key("ParamKind").String())
	}
}

func parseHexByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}
