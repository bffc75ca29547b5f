// Package profile describes a memory technology and the electrical and
// timing parameters that the bring-up sequence is derived from.
package profile

import (
	"errors"
	"fmt"
)

// Technology identifies the SDRAM generation a profile describes.
type Technology string

// The supported technologies.
const (
	SDR   Technology = "SDR"
	DDR   Technology = "DDR"
	LPDDR Technology = "LPDDR"
	DDR2  Technology = "DDR2"
	DDR3  Technology = "DDR3"
	DDR4  Technology = "DDR4"
)

// Technologies lists every supported technology.
var Technologies = []Technology{SDR, DDR, LPDDR, DDR2, DDR3, DDR4}

// Valid reports whether t is one of the supported technologies.
func (t Technology) Valid() bool {
	for _, known := range Technologies {
		if t == known {
			return true
		}
	}

	return false
}

// XDR returns the number of data transfers per device clock.
func (t Technology) XDR() int {
	if t == SDR {
		return 1
	}

	return 2
}

// Capabilities are the calibration features the PHY supports. They are only
// reported to the calibration code, bring-up never uses them.
type Capabilities struct {
	WriteLeveling           bool `json:"write_leveling"`
	WriteLevelingReinit     bool `json:"write_leveling_reinit"`
	WriteLatencyCalibration bool `json:"write_latency_calibration"`
	WriteDQDQSTraining      bool `json:"write_dq_dqs_training"`
	ReadLeveling            bool `json:"read_leveling"`
}

// Electrical holds the termination and drive settings of DDR3 and DDR4
// devices, expressed the way the datasheets do ("40ohm", "disabled").
type Electrical struct {
	RttNom string `json:"rtt_nom,omitempty"`
	RttWr  string `json:"rtt_wr,omitempty"`
	Ron    string `json:"ron,omitempty"`
	TDQS   bool   `json:"tdqs"`
}

// Profile is the timing profile of one memory technology on one PHY.
type Profile struct {
	Technology Technology `json:"technology"`
	PHYType    string     `json:"phy_type,omitempty"`

	PhaseCount    int `json:"phase_count"`
	DataWidthBits int `json:"data_width_bits"`
	ModuleCount   int `json:"module_count"`

	CASLatency      int `json:"cas_latency"`
	CASWriteLatency int `json:"cas_write_latency"`
	CommandLatency  int `json:"command_latency"`
	BurstLength     int `json:"burst_length"`
	TWTR            int `json:"twtr,omitempty"`

	ReadPhase    int `json:"read_phase"`
	WritePhase   int `json:"write_phase"`
	CommandPhase int `json:"command_phase"`

	DelayLineDepth int `json:"delay_line_depth,omitempty"`
	BitslipRange   int `json:"bitslip_range,omitempty"`

	DataMask        bool       `json:"data_mask"`
	FineRefreshMode string     `json:"fine_refresh_mode,omitempty"`
	TCCD            int        `json:"tccd,omitempty"`
	Electrical      Electrical `json:"electrical"`
	RDIMM           *RDIMM     `json:"rdimm,omitempty"`

	Capabilities Capabilities `json:"capabilities"`
}

// Errors reported for invalid profiles. They are always wrapped in a
// *ConfigError.
var (
	ErrUnknownTechnology = errors.New("unknown memory technology")
	ErrPhaseCount        = errors.New("phase count must be at least 1")
	ErrPhaseOutOfRange   = errors.New("phase index out of range")
	ErrSDRPhases         = errors.New("SDR requires exactly one phase")
	ErrLatency           = errors.New("latency must be positive")
	ErrModuleCount       = errors.New("module count must divide the data width")
	ErrDataMaskTDQS      = errors.New("data mask and TDQS cannot both be enabled")
)

// ConfigError reports a profile that violates an invariant. These errors
// indicate a hardware/software mismatch and are never retried.
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("profile: invalid %s (%v): %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Validate checks the invariants of the profile.
func (p Profile) Validate() error {
	if !p.Technology.Valid() {
		return &ConfigError{"technology", p.Technology, ErrUnknownTechnology}
	}

	if p.PhaseCount < 1 {
		return &ConfigError{"phase_count", p.PhaseCount, ErrPhaseCount}
	}

	if p.Technology == SDR && p.PhaseCount != 1 {
		return &ConfigError{"phase_count", p.PhaseCount, ErrSDRPhases}
	}

	err := p.validatePhases()
	if err != nil {
		return err
	}

	if p.CASLatency < 1 {
		return &ConfigError{"cas_latency", p.CASLatency, ErrLatency}
	}

	if p.ModuleCount < 1 || p.DataWidthBits%p.ModuleCount != 0 {
		return &ConfigError{"module_count", p.ModuleCount, ErrModuleCount}
	}

	if p.Technology == DDR4 && p.DataMask && p.Electrical.TDQS {
		return &ConfigError{"electrical.tdqs", p.Electrical.TDQS, ErrDataMaskTDQS}
	}

	return p.validateRDIMM()
}

func (p Profile) validatePhases() error {
	phases := []struct {
		field string
		value int
	}{
		{"read_phase", p.ReadPhase},
		{"write_phase", p.WritePhase},
		{"command_phase", p.CommandPhase},
	}

	for _, ph := range phases {
		if ph.value < 0 || ph.value >= p.PhaseCount {
			return &ConfigError{ph.field, ph.value, ErrPhaseOutOfRange}
		}
	}

	return nil
}

// XDR returns the number of data transfers per device clock.
func (p Profile) XDR() int {
	return p.Technology.XDR()
}

// DFIDataBits returns the width of the data path of one DFI phase.
func (p Profile) DFIDataBits() int {
	return p.DataWidthBits * p.XDR()
}

// PhaseDataBytes returns the size of the wrdata/rddata CSR of one phase.
func (p Profile) PhaseDataBytes() int {
	return (p.DFIDataBits() + 7) / 8
}

// DQDQSRatio returns the number of data lines per strobe.
func (p Profile) DQDQSRatio() int {
	if p.ModuleCount == 0 {
		return 0
	}

	return p.DataWidthBits / p.ModuleCount
}

// WriteRecovery returns the write recovery time in device clocks used by
// the MR0 WR field. It is never lower than the technology minimum.
func (p Profile) WriteRecovery() int {
	wr := p.TWTR * p.PhaseCount

	switch p.Technology {
	case DDR2:
		return 2
	case DDR3:
		return max(wr, 5)
	case DDR4:
		return max(wr, 10)
	default:
		return wr
	}
}
