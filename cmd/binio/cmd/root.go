// Package cmd provides the CLI commands for the binio application.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_binio/internal/config"
	"github.com/andrei-cloud/go_binio/internal/logging"
)

type rootOptions struct {
	configFile string
	guest      string
	convention string
	logLevel   string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "binio",
		Short: "Exchange structured values with WebAssembly guests",
		Long: `binio drives the buffer reservation protocol between a host and a WebAssembly guest:
values are encoded on one side, passed as packed (pointer, length) scalars and decoded
on the other.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Initialize(opts.configFile); err != nil {
				return err
			}
			cfg := config.Get()
			if cmd.Flags().Changed("guest") {
				cfg.Guest.Path = opts.guest
			}
			if cmd.Flags().Changed("convention") {
				cfg.Guest.Convention = opts.convention
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = opts.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return logging.InitLogger(cfg.Log.Level, cfg.Log.Human())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default searches ., $HOME/.go_binio, /etc/go_binio)")
	flags.StringVar(&opts.guest, "guest", "", "guest .wasm file (default: embedded reference guest)")
	flags.StringVar(&opts.convention, "convention", "", "handle convention: packed64 or multivalue")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newRectCmd(),
		newBenchCmd(),
		newInspectCmd(),
		newPackCmd(),
		newUnpackCmd(),
		newCallCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
