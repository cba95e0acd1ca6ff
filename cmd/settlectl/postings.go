package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/settlement-ledger/internal/app"
)

var retryPostingsCmd = &cobra.Command{
	Use:   "retry-postings",
	Short: "Run one pass over undelivered bookkeeping postings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			if a.Retrier == nil {
				return errors.New("CASHBOOK_URL is not set")
			}

			res, err := a.Retrier.RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "dispatched=%d retrying=%d failed=%d\n",
				res.Dispatched, res.Retrying, res.Failed)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(retryPostingsCmd)
}
