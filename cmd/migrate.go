package cmd

import (
	"fmt"

	"roundsettle/config"
	"roundsettle/database"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return database.MigrateUp(config.Get().GetDatabaseURL())
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := "1"
				if len(args) == 1 {
					steps = args[0]
				}
				return database.MigrateDown(config.Get().GetDatabaseURL(), steps)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := database.MigrateStatus(config.Get().GetDatabaseURL())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %v\n", version, dirty)
				return nil
			},
		},
	)
	return migrateCmd
}
