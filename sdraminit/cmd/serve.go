package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pkg/browser"
	"github.com/sarchlab/sdraminit/datarecording"
	"github.com/sarchlab/sdraminit/monitoring"
	"github.com/sarchlab/sdraminit/profile"
	"github.com/sarchlab/sdraminit/timing"
	"github.com/sarchlab/sdraminit/tracing"
	"github.com/spf13/cobra"
)

type serveFlags struct {
	port      int
	open      bool
	recording string
	files     []string
	run       string
	freq      float64
}

func newServeCommand(opts *options) *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve profiles, sequences, and recordings over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := f.monitor(cmd, opts.log)
			if err != nil {
				return err
			}

			url, err := m.StartServer()
			if err != nil {
				return err
			}

			opts.log.Info("monitor started", "url", url)

			if f.open {
				err = browser.OpenURL(url)
				if err != nil {
					opts.log.Error(err, "cannot open a browser", "url", url)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			<-ctx.Done()

			return nil
		},
	}

	cmd.Flags().IntVar(&f.port, "port", 0,
		"Port to listen on. Zero picks a random port. "+
			"Defaults to $"+EnvPort+" if set.")
	cmd.Flags().BoolVar(&f.open, "open", false, "Open the monitor in a browser.")
	cmd.Flags().StringVar(&f.recording, "recording", "",
		"Serve the traces of a recording made with run --record.")
	cmd.Flags().StringArrayVarP(&f.files, "file", "f", nil,
		"Serve a YAML profile under its file name. Repeat for more.")
	cmd.Flags().StringVar(&f.run, "run", "",
		"Run a profile in real time and report its progress.")
	cmd.Flags().Float64Var(&f.freq, "freq", 100,
		"Device clock in MHz for --run.")

	return cmd
}

func (f *serveFlags) portNumber(cmd *cobra.Command) (int, error) {
	if cmd.Flags().Changed("port") {
		return f.port, nil
	}

	env, ok := os.LookupEnv(EnvPort)
	if !ok || env == "" {
		return f.port, nil
	}

	port, err := strconv.Atoi(env)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", EnvPort, err)
	}

	return port, nil
}

// monitor builds the monitor the flags describe.
func (f *serveFlags) monitor(
	cmd *cobra.Command,
	log logr.Logger,
) (*monitoring.Monitor, error) {
	port, err := f.portNumber(cmd)
	if err != nil {
		return nil, err
	}

	m := monitoring.NewMonitor().WithPortNumber(port)

	for _, file := range f.files {
		p, err := profile.LoadFile(file)
		if err != nil {
			return nil, err
		}

		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		m.RegisterProfile(name, p)
	}

	if f.recording != "" {
		reader, err := datarecording.OpenReader(f.recording)
		if err != nil {
			return nil, err
		}

		reader.MapTable(datarecording.ExecTable, datarecording.ExecInfo{})
		reader.MapTable(tracing.RunTable, tracing.RunEntry{})
		reader.MapTable(tracing.StepTable, tracing.StepEntry{})
		reader.MapTable(tracing.RegisterWriteTable, tracing.RegisterWriteEntry{})
		m.RegisterRecording(reader)
	}

	if f.run != "" {
		err = f.startRun(m, log)
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// startRun runs a preset in the background, in real time, reporting to a
// progress bar of the monitor.
func (f *serveFlags) startRun(m *monitoring.Monitor, log logr.Logger) error {
	p, err := profile.Preset(f.run)
	if err != nil {
		return err
	}

	if f.freq <= 0 {
		return fmt.Errorf("--freq must be positive, got %g", f.freq)
	}

	b, err := newBench(p, 0, timing.Freq(f.freq)*timing.MHz, true, log)
	if err != nil {
		return err
	}

	m.RegisterObject("profile", &b.seq.Profile)
	m.RegisterObject("space", b.space)
	m.RegisterObject("binding", b.binding)

	bar := m.CreateProgressBar(f.run, uint64(len(b.seq.Steps)))
	tracing.CollectTrace(b.runner, bar)

	go func() {
		err := b.runner.Run(b.seq)
		if err != nil {
			log.Error(err, "run failed", "profile", f.run)
		}
	}()

	return nil
}
