// Package cmd provides the command-line interface of sdraminit.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variables that provide flag defaults. They can also be set in
// the env file.
const (
	EnvProfile = "SDRAMINIT_PROFILE"
	EnvFormat  = "SDRAMINIT_FORMAT"
	EnvPort    = "SDRAMINIT_PORT"
	EnvVerbose = "SDRAMINIT_VERBOSE"
)

type options struct {
	verbose bool
	envFile string
	log     logr.Logger
}

// NewRootCommand creates the sdraminit command and its subcommands.
func NewRootCommand() *cobra.Command {
	opts := &options{log: logr.Discard()}

	root := &cobra.Command{
		Use:   "sdraminit",
		Short: "Generate and run SDRAM initialization sequences.",
		Long: `sdraminit synthesizes the power-up and mode-register ` +
			`programming sequence of SDR, DDR, LPDDR, DDR2, DDR3, and DDR4 ` +
			`memories behind a multi-phase DFI PHY. It renders the sequence ` +
			`as firmware headers and can run it against a simulated register ` +
			`space.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := loadEnv(opts.envFile, cmd.Flags().Changed("env-file"))
			if err != nil {
				return err
			}

			verbose := opts.verbose
			if !cmd.Flags().Changed("verbose") {
				verbose, _ = strconv.ParseBool(os.Getenv(EnvVerbose))
			}

			opts.log = newLogger(cmd.ErrOrStderr(), verbose)

			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Log every step of a run.")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env",
		"File that provides "+EnvProfile+" and the other defaults.")

	root.AddCommand(
		newProfilesCommand(),
		newGenerateCommand(opts),
		newRunCommand(opts),
		newServeCommand(opts),
	)

	return root
}

// Execute runs the command line and exits through atexit, which flushes
// open recordings.
func Execute() {
	err := NewRootCommand().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadEnv loads the env file. A missing file is only an error if it was
// asked for explicitly.
func loadEnv(path string, explicit bool) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("loading env file: %w", err)
}

func newLogger(w io.Writer, verbose bool) logr.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)

	return zapr.NewLogger(zap.New(core))
}

// stringFlag returns the flag value, or the environment variable if the
// flag was not set on the command line.
func stringFlag(cmd *cobra.Command, name, env string) string {
	v, _ := cmd.Flags().GetString(name)
	if cmd.Flags().Changed(name) {
		return v
	}

	if e, ok := os.LookupEnv(env); ok && e != "" {
		return e
	}

	return v
}
