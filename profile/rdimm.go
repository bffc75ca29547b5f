package profile

import (
	"errors"
	"math"
)

// Errors reported for invalid RDIMM settings. They are wrapped in a
// *ConfigError.
var (
	ErrRDIMMTechnology = errors.New("registered DIMMs are DDR4 only")
	ErrRDIMMClock      = errors.New("clock period out of the RCD speed range")
	ErrRCDDrive        = errors.New("RCD drive strength must fit 4 bits")
)

// RDIMM describes the registering clock driver (RCD) of a registered DDR4
// DIMM. TCK is the device clock period in seconds.
type RDIMM struct {
	TCK         float64 `json:"tck"`
	PLLBypass   bool    `json:"pll_bypass,omitempty"`
	CACSDrive   int     `json:"ca_cs_drive"`
	ODTCKEDrive int     `json:"odt_cke_drive"`
	ClockDrive  int     `json:"clk_drive"`
}

// rcdSpeedGrades are the data rates of the F0RC0A coarse speed codes, in
// code order.
var rcdSpeedGrades = []float64{
	1600e6, 1866e6, 2133e6, 2400e6, 2666e6, 2933e6, 3200e6,
}

const (
	rcdPLLBypassSpeed = 7
	rcdMaxFineSpeed   = 0b1100001
)

// CoarseSpeed returns the F0RC0A speed code: the slowest grade whose clock
// period does not exceed TCK, or the PLL bypass code.
func (r RDIMM) CoarseSpeed() (int, error) {
	if r.PLLBypass {
		return rcdPLLBypassSpeed, nil
	}

	for code, rate := range rcdSpeedGrades {
		if r.TCK >= 2/rate {
			return code, nil
		}
	}

	return 0, ErrRDIMMClock
}

// FineSpeed returns the F0RC3x code, the data rate above 1240 MT/s in steps
// of 20 MT/s.
func (r RDIMM) FineSpeed() int {
	rate := 2 / r.TCK
	fine := int(math.Floor((rate - 1240e6) / 20e6))

	return min(max(fine, 0), rcdMaxFineSpeed)
}

// IsRDIMM reports whether the profile describes a registered DIMM.
func (p Profile) IsRDIMM() bool {
	return p.RDIMM != nil
}

func (p Profile) validateRDIMM() error {
	r := p.RDIMM
	if r == nil {
		return nil
	}

	if p.Technology != DDR4 {
		return &ConfigError{"rdimm", p.Technology, ErrRDIMMTechnology}
	}

	if r.TCK <= 0 {
		return &ConfigError{"rdimm.tck", r.TCK, ErrRDIMMClock}
	}

	_, err := r.CoarseSpeed()
	if err != nil {
		return &ConfigError{"rdimm.tck", r.TCK, err}
	}

	drives := []struct {
		field string
		value int
	}{
		{"rdimm.ca_cs_drive", r.CACSDrive},
		{"rdimm.odt_cke_drive", r.ODTCKEDrive},
		{"rdimm.clk_drive", r.ClockDrive},
	}

	for _, d := range drives {
		if d.value < 0 || d.value > 0xf {
			return &ConfigError{d.field, d.value, ErrRCDDrive}
		}
	}

	return nil
}
