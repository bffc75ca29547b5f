package profile

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownPreset is returned when a preset name is not registered.
var ErrUnknownPreset = errors.New("unknown preset")

var presets = map[string]Builder{
	"sdr": MakeBuilder().
		WithTechnology(SDR).
		WithPHYType("GENSDRPHY").
		WithPhaseCount(1).
		WithDataWidth(16).
		WithModuleCount(2).
		WithCL(2).
		WithCWL(2).
		WithTWTR(2).
		WithReadPhase(0).
		WithWritePhase(0).
		WithDelayLineDepth(0).
		WithBitslipRange(0).
		WithDataMask(false),

	"ddr3": MakeBuilder().
		WithTechnology(DDR3).
		WithPHYType("K7DDRPHY").
		WithDataWidth(64).
		WithModuleCount(8).
		WithCL(7).
		WithCWL(6).
		WithTWTR(2).
		WithDerivedPhases().
		WithDelayLineDepth(32).
		WithBitslipRange(8).
		WithCapabilities(Capabilities{
			WriteLeveling:           true,
			WriteLatencyCalibration: true,
			ReadLeveling:            true,
		}),

	"ddr4": MakeBuilder().
		WithCapabilities(Capabilities{
			WriteLeveling:           true,
			WriteLatencyCalibration: true,
			ReadLeveling:            true,
		}),

	"ddr4-rdimm": MakeBuilder().
		WithRDIMM(RDIMM{
			TCK:         1.2e-9,
			CACSDrive:   0x5,
			ODTCKEDrive: 0x5,
			ClockDrive:  0x5,
		}).
		WithCapabilities(Capabilities{
			WriteLeveling:           true,
			WriteLatencyCalibration: true,
			ReadLeveling:            true,
		}),

	"ddr4-nodm": MakeBuilder().
		WithCommandLatency(1).
		WithDerivedPhases().
		WithDataMask(false).
		WithCapabilities(Capabilities{
			WriteLeveling:           true,
			WriteLatencyCalibration: true,
			ReadLeveling:            true,
		}),
}

// PresetNames returns the names of the registered presets, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Preset builds the named preset profile.
func Preset(name string) (Profile, error) {
	b, ok := presets[name]
	if !ok {
		return Profile{}, fmt.Errorf("%q: %w", name, ErrUnknownPreset)
	}

	return b.Build()
}

// MustPreset is like Preset but panics on error.
func MustPreset(name string) Profile {
	p, err := Preset(name)
	if err != nil {
		panic(err)
	}

	return p
}
