// Package cli wires configuration, storage and the Reddit collector into the
// frontpagewatch commands.
package cli

import (
	"github.com/qepting91/frontpage-watch/internal/config"
	"github.com/qepting91/frontpage-watch/internal/logger"
	"github.com/spf13/cobra"
)

const serviceName = "frontpagewatch"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "frontpagewatch",
		Short: "Track the Reddit front page and re-post removed submissions",
		Long: "frontpagewatch snapshots the ranked front page into PostgreSQL, detects " +
			"submissions that dropped off between runs and re-submits the ones moderators removed.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.GetConfigPath("config.yml"), "path to the YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// loadConfig reads the config file and environment. Validation is left to the caller
// because flags may still override fields.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Debug,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "create logger", err)
	}
	return log.With(logger.String("service", serviceName)), nil
}
