package cmd

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/sarchlab/sdraminit/csr"
	"github.com/sarchlab/sdraminit/datarecording"
	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/initseq"
	"github.com/sarchlab/sdraminit/profile"
	"github.com/sarchlab/sdraminit/timing"
	"github.com/sarchlab/sdraminit/tracing"
	"github.com/spf13/cobra"
)

type runFlags struct {
	profileFlags
	base     uint64
	freq     float64
	realtime bool
	record   string
	dump     bool
}

func newRunCommand(opts *options) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the initialization sequence against a simulated PHY.",
		Long: "Run the initialization sequence of a profile through a DFI " +
			"binding backed by an in-memory CSR space and report the " +
			"register writes it issues.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := f.resolve(cmd)
			if err != nil {
				return err
			}

			return f.run(cmd, opts.log, p)
		},
	}

	f.bind(cmd)
	cmd.Flags().Uint64Var(&f.base, "base", 0, "CSR base address of the DFII.")
	cmd.Flags().Float64Var(&f.freq, "freq", 100,
		"Device clock in MHz that delays are counted in.")
	cmd.Flags().BoolVar(&f.realtime, "realtime", false,
		"Sleep for the delays instead of counting them.")
	cmd.Flags().StringVar(&f.record, "record", "",
		"Record the run into this SQLite database.")
	cmd.Flags().BoolVar(&f.dump, "dump", false, "Print every register write.")

	return cmd
}

// bench is a runner over a simulated CSR space.
type bench struct {
	seq     initseq.Sequence
	space   *csr.Space
	binding *dfi.Binding
	counter *timing.CycleCounter
	clock   tracing.TimeTeller
	runner  *initseq.Runner
}

func newBench(
	p profile.Profile,
	base uint64,
	freq timing.Freq,
	realtime bool,
	log logr.Logger,
) (*bench, error) {
	seq, err := initseq.Generate(p)
	if err != nil {
		return nil, err
	}

	space := csr.NewSpace()

	b, err := dfi.NewBindingForProfile(
		csr.LayoutFor(base, p).Hardware(space, p.PhaseCount), p)
	if err != nil {
		return nil, err
	}

	bench := &bench{
		seq:     seq,
		space:   space,
		binding: b,
		counter: timing.NewCycleCounter(),
	}

	var waiter timing.Waiter = bench.counter
	bench.clock = tracing.NewCycleClock(bench.counter, freq)

	if realtime {
		waiter = timing.NewClockWaiter(freq)
		bench.clock = tracing.NewWallClock()
	}

	bench.runner = initseq.NewRunner(b, waiter).WithLogger(log)

	return bench, nil
}

func (f *runFlags) run(
	cmd *cobra.Command,
	log logr.Logger,
	p profile.Profile,
) error {
	if f.freq <= 0 {
		return fmt.Errorf("--freq must be positive, got %g", f.freq)
	}

	b, err := newBench(p, f.base, timing.Freq(f.freq)*timing.MHz, f.realtime, log)
	if err != nil {
		return err
	}

	counts := tracing.NewCountTracer()
	tracing.CollectTrace(b.runner, counts)

	if f.record != "" {
		rec, err := datarecording.Open(f.record)
		if err != nil {
			return err
		}
		defer rec.Close()

		exec := datarecording.NewExecRecorder(rec)
		exec.Start()
		exec.Set("Profile", f.name(cmd))
		defer exec.End()

		tracer := tracing.NewDBTracer(b.clock, rec)
		tracing.CollectTrace(b.runner, tracer)
		tracer.StartRun(b.seq)
		defer tracer.EndRun()
	}

	err = b.runner.Run(b.seq)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if f.dump {
		for _, a := range b.space.Writes() {
			fmt.Fprintf(out, "%-20s %s\n", a, b.space.NameOf(a.Addr))
		}
	}

	fmt.Fprintf(out, "%s: %d steps, %d register writes, %d delay cycles\n",
		b.seq.Technology(), counts.Steps(), counts.Writes(), counts.DelayCycles())

	return nil
}
