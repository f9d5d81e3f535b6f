package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/juev/ledger-api/internal/balance"
	"github.com/juev/ledger-api/internal/report"
)

func newBalanceCommand(global *globalOptions) *cobra.Command {
	var after, before, account string

	cmd := &cobra.Command{
		Use:   "balance [journal]",
		Short: "Print the balance tree as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := balance.ParseWindow(after, before)
			if err != nil {
				return err
			}

			cfg, err := global.config(args)
			if err != nil {
				return err
			}
			if global.logLevel == "" {
				cfg.LogLevel = "warn"
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			j, err := loadJournal(cfg, logger)
			if err != nil {
				return err
			}

			root := j.Root()
			if account != "" {
				if root = j.Find(account); root == nil {
					return fmt.Errorf("account not found: %s", account)
				}
			}

			b := balance.Compute(root, window)
			logger.Debug("balance computed", zap.Stringer("window", window))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report.NewBalanceResponse(b, time.Now()))
		},
	}

	cmd.Flags().StringVar(&after, "after", "", "include postings on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&before, "before", "", "include postings before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&account, "account", "", "report only this account subtree (full path)")

	return cmd
}
