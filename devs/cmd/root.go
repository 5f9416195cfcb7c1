// Package cmd provides the command-line interface of devs.
package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"go.uber.org/automaxprocs/maxprocs"
)

type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string

	// cfg is resolved before any subcommand runs.
	cfg RunConfig
}

// NewRootCmd creates the devs command and its subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "devs",
		Short: "devs runs hierarchical DEVS simulations.",
		Long: `devs runs hierarchical DEVS simulations on a sequential, ` +
			`parallel, or real-time coordinator. It ships the DEVStone ` +
			`benchmark and can record and query the traces of a run.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "",
		"YAML run file")
	flags.StringVar(&opts.envFile, "env-file", ".env",
		"file of environment variables to load if it exists")
	flags.StringVar(&opts.logLevel, "log-level", "",
		"log level (trace, debug, info, warning, error)")

	rootCmd.AddCommand(
		newDEVStoneCmd(opts),
		newTraceCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// resolve builds the configuration from the defaults, the run file, the
// environment, and the flags, in increasing order of precedence.
func (o *rootOptions) resolve(cmd *cobra.Command) error {
	if err := godotenv.Load(o.envFile); err != nil &&
		!errors.Is(err, fs.ErrNotExist) {
		return err
	}

	o.cfg = DefaultConfig()

	if o.configFile != "" {
		cfg, err := LoadConfig(o.configFile)
		if err != nil {
			return err
		}

		o.cfg = cfg
	}

	if err := o.cfg.applyEnv(); err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		o.cfg.LogLevel = o.logLevel
	}

	level, err := logrus.ParseLevel(o.cfg.LogLevel)
	if err != nil {
		return err
	}

	logrus.SetLevel(level)

	if _, err := maxprocs.Set(maxprocs.Logger(logrus.Debugf)); err != nil {
		logrus.WithError(err).Warn("cannot align GOMAXPROCS with the CPU quota")
	}

	return nil
}

// Execute runs the devs command and exits, running the registered exit
// handlers first.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
