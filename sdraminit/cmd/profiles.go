package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/sarchlab/sdraminit/profile"
	"github.com/spf13/cobra"
)

func newProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the preset profiles.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTECHNOLOGY\tPHY\tPHASES\tCL\tCWL")

			for _, name := range profile.PresetNames() {
				p := profile.MustPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
					name, p.Technology, p.PHYType,
					p.PhaseCount, p.CASLatency, p.CASWriteLatency)
			}

			return w.Flush()
		},
	}
}
