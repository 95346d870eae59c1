package cli

import (
	"fmt"

	"github.com/qepting91/frontpage-watch/internal/storage"
	"github.com/spf13/cobra"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	Steps int
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(_ *cobra.Command, args []string) error {
			return runMigrate(opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Steps, "steps", 1, "number of migrations to roll back (down only)")

	return cmd
}

func runMigrate(opts *MigrateOptions, direction string) error {
	if direction != "up" && direction != "down" {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown direction %q (use 'up' or 'down')", direction))
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	url := cfg.Database.MigrateURL()
	if direction == "up" {
		err = storage.MigrateUp(url, log)
	} else {
		err = storage.MigrateDown(url, opts.Steps, log)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "migrate "+direction, err)
	}
	return nil
}
