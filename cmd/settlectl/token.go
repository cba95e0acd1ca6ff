package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/settlement-ledger/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:     "token",
	Short:   "Issue an API token for an operator",
	Example: `  settlectl token --actor ops@station-12 --name "Night shift"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, _ := cmd.Flags().GetString("actor")
		name, _ := cmd.Flags().GetString("name")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}

		token, err := auth.GenerateToken(actor, name, cfg.JWTSecret, cfg.JWTExpiry())
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("actor", "", "Operator identity recorded on corrections")
	tokenCmd.Flags().String("name", "", "Display name")
	_ = tokenCmd.MarkFlagRequired("actor")
}
