package uds

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/samsamfire/govuds/isotp"
)

// IsoTpConfig is the YAML-facing mirror of isotp.Config (spec.md §3). It
// exists so startup configuration can be expressed as plain data (durations
// as strings, addressing mode as a name) without teaching isotp.Config
// itself about YAML — the core package stays free of a serialization
// dependency.
type IsoTpConfig struct {
	ReqID           uint32 `yaml:"req_id"`
	ResID           uint32 `yaml:"res_id"`
	AddressingMode  string `yaml:"addressing_mode"`
	CANFD           bool   `yaml:"can_fd"`
	FlowControlWait string `yaml:"flow_control_wait"`
	RxTimeout       string `yaml:"rx_timeout"`
	ReceiverBS      byte   `yaml:"receiver_bs"`
	ReceiverSTmin   float64 `yaml:"receiver_stmin"`
	PaddingByte     byte   `yaml:"padding_byte"`
}

// UdsConfig mirrors the source's Config.uds section
// (original_source/uds/config.py): the P2 timers governing how long the
// session waits for a response before giving up, independent of the
// ISO-TP-level RX timeout which governs a single frame's arrival.
type UdsConfig struct {
	P2CANClient string `yaml:"p2_can_client"`
	P2CANServer string `yaml:"p2_can_server"`
}

// udsDocument is the on-disk YAML shape: one isotp section, one uds
// section, matching LoadConfig's two-value return.
type udsDocument struct {
	IsoTp IsoTpConfig `yaml:"isotp"`
	Uds   UdsConfig   `yaml:"uds"`
}

var addressingModeNames = map[string]isotp.AddressingMode{
	"normal":       isotp.Normal,
	"normal_fixed": isotp.NormalFixed,
	"extended":     isotp.Extended,
	"mixed":        isotp.Mixed,
}

// LoadConfig reads a small YAML document (two sections, "isotp" and "uds")
// into the config structs consumed at startup. Loading configuration is
// explicitly out of scope for the core (spec.md §1); this is the one
// acceptable downstream-facing example of a loader, grounded on
// original_source/uds/config.py's Config.load pattern but expressed as a
// plain function returning explicit structs rather than a process-wide
// singleton (spec.md §9).
func LoadConfig(r io.Reader) (IsoTpConfig, UdsConfig, error) {
	var doc udsDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return IsoTpConfig{}, UdsConfig{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return doc.IsoTp, doc.Uds, nil
}

// ToIsoTpConfig resolves this YAML-facing config into an isotp.Config,
// parsing durations and the addressing-mode name.
func (c IsoTpConfig) ToIsoTpConfig() (isotp.Config, error) {
	mode, ok := addressingModeNames[c.AddressingMode]
	if !ok {
		return isotp.Config{}, fmt.Errorf("%w: unknown addressing mode %q", ErrConfig, c.AddressingMode)
	}
	cfg := isotp.DefaultConfig(c.ReqID, c.ResID)
	cfg.AddressingMode = mode
	cfg.CANFD = c.CANFD
	cfg.ReceiverBS = c.ReceiverBS
	if c.ReceiverSTmin != 0 {
		cfg.ReceiverSTmin = c.ReceiverSTmin
	}
	if c.PaddingByte != 0 {
		cfg.PaddingByte = c.PaddingByte
	}
	if c.FlowControlWait != "" {
		d, err := time.ParseDuration(c.FlowControlWait)
		if err != nil {
			return isotp.Config{}, fmt.Errorf("%w: flow_control_wait: %v", ErrConfig, err)
		}
		cfg.FlowControlWait = d
	}
	if c.RxTimeout != "" {
		d, err := time.ParseDuration(c.RxTimeout)
		if err != nil {
			return isotp.Config{}, fmt.Errorf("%w: rx_timeout: %v", ErrConfig, err)
		}
		cfg.RxTimeout = d
	}
	return cfg, nil
}

// P2CANClientDuration parses the P2_CAN_Client timer used by Send's
// response-pending loop (spec.md §4.6), defaulting to 1s if unset.
func (c UdsConfig) P2CANClientDuration() (time.Duration, error) {
	if c.P2CANClient == "" {
		return time.Second, nil
	}
	d, err := time.ParseDuration(c.P2CANClient)
	if err != nil {
		return 0, fmt.Errorf("%w: p2_can_client: %v", ErrConfig, err)
	}
	return d, nil
}
