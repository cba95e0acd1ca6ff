package main

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/josh-kwaku/settlement-ledger/internal/app"
	"github.com/josh-kwaku/settlement-ledger/internal/auth"
	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
	"github.com/josh-kwaku/settlement-ledger/internal/service/settlement"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the current cash position",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			b, err := a.Settlements.GetBalance(cmd.Context())
			if err != nil {
				return err
			}
			printBalance(cmd.OutOrStdout(), b)
			return nil
		})
	},
}

var setFundsCmd = &cobra.Command{
	Use:     "set-funds",
	Short:   "Overwrite available funds and/or planned, with a logged reason",
	Example: `  settlectl balance set-funds --available 25000 --reason "March opening balance" --actor ops`,
	RunE:    runSetFunds,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.AddCommand(setFundsCmd)

	setFundsCmd.Flags().String("available", "", "New available funds")
	setFundsCmd.Flags().String("planned", "", "New planned amount")
	setFundsCmd.Flags().String("reason", "", "Why the figures change")
	setFundsCmd.Flags().String("actor", "", "Who makes the change")
	_ = setFundsCmd.MarkFlagRequired("reason")
	_ = setFundsCmd.MarkFlagRequired("actor")
}

func runSetFunds(cmd *cobra.Command, args []string) error {
	availableStr, _ := cmd.Flags().GetString("available")
	plannedStr, _ := cmd.Flags().GetString("planned")
	reason, _ := cmd.Flags().GetString("reason")
	actor, _ := cmd.Flags().GetString("actor")

	available, err := optionalAmount("available", availableStr)
	if err != nil {
		return err
	}
	planned, err := optionalAmount("planned", plannedStr)
	if err != nil {
		return err
	}

	ctx := auth.ContextWithActor(cmd.Context(), actor)
	return withApp(ctx, func(a *app.App) error {
		b, err := a.Settlements.SetFunds(ctx, settlement.FundsUpdate{
			AvailableFunds: available,
			Planned:        planned,
			Reason:         reason,
			Actor:          actor,
		})
		if err != nil {
			return err
		}
		printBalance(cmd.OutOrStdout(), b)
		return nil
	})
}

func optionalAmount(flag, v string) (*decimal.Decimal, error) {
	if v == "" {
		return nil, nil
	}
	d, err := money.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return &d, nil
}

func printBalance(out io.Writer, b *domain.Balance) {
	fmt.Fprintf(out, "Available funds: %s\n", money.Format(b.AvailableFunds))
	fmt.Fprintf(out, "Planned:         %s\n", money.Format(b.Planned))
	fmt.Fprintf(out, "Balance after:   %s\n", money.Format(b.BalanceAfter))
}
