package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/samsamfire/govuds/isotp"
	"github.com/samsamfire/govuds/isotp/bus/canbus"
	"github.com/samsamfire/govuds/odx"
	"github.com/samsamfire/govuds/uds"
)

var defaultCANInterface = "vcan0"

func main() {
	log.SetLevel(log.InfoLevel)

	channel := flag.String("i", defaultCANInterface, "socketcan channel e.g. can0,vcan0")
	configPath := flag.String("c", "", "path to a uds.LoadConfig YAML file")
	didFlag := flag.String("did", "0xF18C", "data identifier to read, hex")
	flag.Parse()

	configFile, err := os.Open(*configPath)
	if err != nil {
		log.Fatalf("opening config file: %v", err)
	}
	defer configFile.Close()

	isoCfg, udsCfg, err := uds.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	tpCfg, err := isoCfg.ToIsoTpConfig()
	if err != nil {
		log.Fatalf("resolving isotp config: %v", err)
	}
	p2, err := udsCfg.P2CANClientDuration()
	if err != nil {
		log.Fatalf("resolving p2_can_client: %v", err)
	}

	did, err := strconv.ParseUint(*didFlag, 0, 16)
	if err != nil {
		log.Fatalf("invalid -did %q: %v", *didFlag, err)
	}

	canBus, err := canbus.New(*channel)
	if err != nil {
		log.Fatalf("opening CAN interface %q: %v", *channel, err)
	}
	if err := canBus.Connect(); err != nil {
		log.Fatalf("connecting to CAN interface %q: %v", *channel, err)
	}

	transport, err := isotp.NewTransport(canBus, tpCfg, 64)
	if err != nil {
		log.Fatalf("constructing isotp transport: %v", err)
	}

	client := uds.NewClient(transport, defaultServices(), p2)

	result, err := client.ReadDataByIdentifier(context.Background(), uint16(did))
	if err != nil {
		log.Fatalf("ReadDataByIdentifier: %v", err)
	}
	if result.Negative != nil {
		fmt.Printf("negative response: NRC=0x%02X (%s)\n", result.Negative.NRC, result.Negative.NRCLabel)
		os.Exit(1)
	}
	fmt.Println(result.Decoded)
}

// defaultServices is a minimal built-in RDBI service covering the common
// ECU_Serial_Number DID; a real deployment supplies its own []odx.Service,
// compiled from an ODX file by a downstream loader (spec.md §1: ODX XML
// parsing is out of scope for the core).
func defaultServices() []odx.Service {
	return []odx.Service{{
		ShortName: "ReadDataByIdentifier",
		SID:       0x22,
		PosResponses: []*odx.PosResponse{{
			SIDLength: 1, SID: 0x62, DIDLength: 2, DID: 0xF18C,
			Params: []*odx.Param{{
				ShortName:     "ECU_Serial_Number",
				DiagCodedType: odx.DiagCodedType{Kind: odx.StandardLengthKind, ByteLength: 17},
				BaseDataType:  odx.ASCIIString,
			}},
		}},
		NegResponse: &odx.NegativeResponseSpec{SID: 0x22},
	}}
}
