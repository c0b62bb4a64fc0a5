package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"roundsettle/adminapi"
	"roundsettle/config"
	"roundsettle/infrastructure"

	"github.com/spf13/cobra"
)

// withEngine runs fn against an engine with a no-op event publisher
func withEngine(ctx context.Context, fn func(eng *engine) error) error {
	cfg := config.Get()
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	eng, err := newEngine(cfg, db, infrastructure.NewNoopEventPublisher())
	if err != nil {
		return err
	}
	return fn(eng)
}

func parsePositiveID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", what, arg)
	}
	return id, nil
}

func newSettleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "settle",
		Short: "Settle every due round once and print the summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(eng *engine) error {
				summary, err := eng.settler.SettleDueRounds(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(summary)
			})
		},
	}
}

func newCommissionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "commissions <round-id>",
		Short: "Distribute (or retry) upline commissions for a settled round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roundID, err := parsePositiveID(args[0], "round id")
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(eng *engine) error {
				result, err := eng.distributor.DistributeCommissions(cmd.Context(), roundID)
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}
}

func newAuditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <account-id>",
		Short: "Replay an account's ledger and report mismatches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := parsePositiveID(args[0], "account id")
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(eng *engine) error {
				audit, err := eng.ledgerOps.Audit(cmd.Context(), accountID)
				if err != nil {
					return err
				}
				if err := printJSON(audit); err != nil {
					return err
				}
				if !audit.IsConsistent() {
					return fmt.Errorf("ledger of account %d is inconsistent", accountID)
				}
				return nil
			})
		},
	}
}

func newAdjustCommand() *cobra.Command {
	var reason string
	adjustCmd := &cobra.Command{
		Use:   "adjust <account-id> <amount>",
		Short: "Apply a manual balance adjustment through the ledger",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := parsePositiveID(args[0], "account id")
			if err != nil {
				return err
			}
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || amount == 0 {
				return fmt.Errorf("invalid amount: %q", args[1])
			}
			return withEngine(cmd.Context(), func(eng *engine) error {
				entry, err := eng.ledgerOps.Adjust(cmd.Context(), accountID, amount, strings.TrimSpace(reason))
				if err != nil {
					return err
				}
				return printJSON(entry)
			})
		},
	}
	adjustCmd.Flags().StringVar(&reason, "reason", "manual adjustment", "reason recorded in the ledger metadata")
	return adjustCmd
}

func newAdminTokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	tokenCmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Issue a signed bearer token for the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := adminapi.IssueAdminToken(config.Get().AdminJWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return tokenCmd
}
