package cmd

import (
	"github.com/sarchlab/sdraminit/profile"
	"github.com/spf13/cobra"
)

// profileFlags selects a profile and overrides its latencies.
type profileFlags struct {
	preset string
	file   string
	cl     int
	cwl    int
	clock  float64
}

func (f *profileFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.preset, "profile", "p", "ddr4",
		"Preset profile. Defaults to $"+EnvProfile+" if set.")
	cmd.Flags().StringVarP(&f.file, "file", "f", "",
		"YAML profile document. Takes precedence over --profile.")
	cmd.Flags().IntVar(&f.cl, "cl", 0, "Override the CAS latency.")
	cmd.Flags().IntVar(&f.cwl, "cwl", 0, "Override the CAS write latency.")
	cmd.Flags().Float64Var(&f.clock, "clock", 0,
		"Memory clock in Hz. Picks CL and CWL from the JEDEC speed bins.")
}

// name returns a short name of the selected profile.
func (f *profileFlags) name(cmd *cobra.Command) string {
	if f.file != "" {
		return f.file
	}

	return stringFlag(cmd, "profile", EnvProfile)
}

func (f *profileFlags) resolve(cmd *cobra.Command) (profile.Profile, error) {
	var (
		p   profile.Profile
		err error
	)

	if f.file != "" {
		p, err = profile.LoadFile(f.file)
	} else {
		p, err = profile.Preset(f.name(cmd))
	}

	if err != nil {
		return profile.Profile{}, err
	}

	if f.clock > 0 {
		p.CASLatency, p.CASWriteLatency, err =
			profile.CLCWLForClock(p.Technology, f.clock)
		if err != nil {
			return profile.Profile{}, err
		}
	}

	if f.cl > 0 {
		p.CASLatency = f.cl
	}

	if f.cwl > 0 {
		p.CASWriteLatency = f.cwl
	}

	err = p.Validate()
	if err != nil {
		return profile.Profile{}, err
	}

	return p, nil
}
