package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"roundsettle/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the CLI. Without a subcommand it runs the service.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "roundsettle",
		Short:         "Round settlement and commission distribution service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(config.Get())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context())
		},
	}

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSettleCommand(),
		newCommissionsCommand(),
		newAuditCommand(),
		newAdjustCommand(),
		newAdminTokenCommand(),
	)
	return root
}

// Execute runs the CLI with the given context
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the settlement worker and admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context())
		},
	}
}

func configureLogging(cfg *config.Config) {
	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if cfg.Environment == "development" {
		log.SetLevel(log.DebugLevel)
	}
}

// printJSON writes a command result to stdout
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
