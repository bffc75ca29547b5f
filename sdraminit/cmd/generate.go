package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sarchlab/sdraminit/header"
	"github.com/sarchlab/sdraminit/initseq"
	"github.com/sarchlab/sdraminit/profile"
	"github.com/spf13/cobra"
)

// Formats accepted by the generate command.
var formats = []string{"c", "legacy", "py", "yaml", "trace"}

// Errors returned for invalid generate flags.
var (
	ErrFormat       = errors.New("unknown format")
	ErrFlagConflict = errors.New("conflicting flags")
)

// profileFlagNames are the flags that select a single profile.
var profileFlagNames = []string{"profile", "file", "cl", "cwl", "clock"}

type generateFlags struct {
	profileFlags
	format string
	output string
	phys   []string
}

func newGenerateCommand(opts *options) *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render the initialization sequence of a profile.",
		Long: "Render the initialization sequence of a profile as a C " +
			"header, a multi-PHY legacy C header, a Python module, the " +
			"resolved profile in YAML, or a plain step listing.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := f.render(cmd)
			if err != nil {
				return err
			}

			if f.output == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}

			err = os.WriteFile(f.output, []byte(out), 0o644)
			if err != nil {
				return err
			}

			opts.log.Info("output written", "path", f.output)

			return nil
		},
	}

	f.bind(cmd)
	cmd.Flags().StringVar(&f.format, "format", "c",
		"Output format, one of "+strings.Join(formats, ", ")+
			". Defaults to $"+EnvFormat+" if set.")
	cmd.Flags().StringVarP(&f.output, "output", "o", "",
		"Write to a file instead of stdout.")
	cmd.Flags().StringArrayVar(&f.phys, "phy", nil,
		"name=preset of one PHY of a legacy header. Repeat for more PHYs.")

	return cmd
}

func (f *generateFlags) render(cmd *cobra.Command) (string, error) {
	format := stringFlag(cmd, "format", EnvFormat)
	if len(f.phys) > 0 {
		err := f.checkPHYFlags(cmd, format)
		if err != nil {
			return "", err
		}

		return f.renderPHYs()
	}

	p, err := f.resolve(cmd)
	if err != nil {
		return "", err
	}

	if format == "yaml" {
		data, err := profile.Marshal(p)
		return string(data), err
	}

	seq, err := initseq.Generate(p)
	if err != nil {
		return "", err
	}

	switch format {
	case "c":
		return header.C(seq), nil
	case "legacy":
		return header.LegacyC([]header.PHY{{Name: "sdram", Sequence: seq}})
	case "py":
		return header.Python(seq), nil
	case "trace":
		return listing(seq), nil
	}

	return "", fmt.Errorf("%q: %w", format, ErrFormat)
}

// checkPHYFlags rejects --phy outside of the legacy format, and --phy
// together with the flags that pick a single profile.
func (f *generateFlags) checkPHYFlags(cmd *cobra.Command, format string) error {
	if format != "legacy" {
		return fmt.Errorf("--phy with --format %s, want legacy: %w",
			format, ErrFlagConflict)
	}

	for _, name := range profileFlagNames {
		if cmd.Flags().Changed(name) {
			return fmt.Errorf("--phy with --%s: %w", name, ErrFlagConflict)
		}
	}

	return nil
}

func (f *generateFlags) renderPHYs() (string, error) {
	phys := make([]header.PHY, 0, len(f.phys))

	for _, arg := range f.phys {
		name, preset, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return "", fmt.Errorf("invalid --phy %q, want name=preset", arg)
		}

		p, err := profile.Preset(preset)
		if err != nil {
			return "", err
		}

		seq, err := initseq.Generate(p)
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}

		phys = append(phys, header.PHY{Name: name, Sequence: seq})
	}

	return header.LegacyC(phys)
}

// listing renders one line per step.
func listing(seq initseq.Sequence) string {
	var b strings.Builder

	p := seq.Profile
	fmt.Fprintf(&b, "# %s %s, %d phases, CL=%d CWL=%d BL=%d\n",
		p.Technology, p.PHYType, p.PhaseCount,
		p.CASLatency, p.CASWriteLatency, p.BurstLength)

	for _, i := range seq.ModeRegisters.Indices() {
		fmt.Fprintf(&b, "# MR%d = %#x\n", i, seq.ModeRegisters[i])
	}

	for i, s := range seq.Steps {
		fmt.Fprintf(&b, "%2d  %-32s p%d  a=%#06x  ba=%d  %-8s %-24s %d\n",
			i, s.Label, s.Phase, s.Address, s.BankAddress,
			s.Kind, s.MaskString(), s.PostDelay)
	}

	return b.String()
}
