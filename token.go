package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	tokenUser    uint
	tokenName    string
	tokenExpires time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an API token for a user",
	Long: `Create an API token for a user and print it. The token is shown only
once; the database keeps a salted hash.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		u, err := store.GetUserByID(ctx, tokenUser)
		if err != nil {
			return fmt.Errorf("user %d: %w", tokenUser, err)
		}
		var expiresAt *time.Time
		if tokenExpires > 0 {
			t := time.Now().Add(tokenExpires)
			expiresAt = &t
		}
		plain, rec, err := store.CreateAPIToken(ctx, u.ID, tokenName, expiresAt)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "token %d for %s (%s):\n%s\n", rec.ID, u.Email, u.Role, plain)
		return nil
	},
}

func init() {
	tokenCreateCmd.Flags().UintVar(&tokenUser, "user", 0, "user id")
	tokenCreateCmd.Flags().StringVar(&tokenName, "name", "cli", "token name")
	tokenCreateCmd.Flags().DurationVar(&tokenExpires, "expires", 0, "lifetime, e.g. 720h (0 = never)")
	_ = tokenCreateCmd.MarkFlagRequired("user")

	tokenCmd.AddCommand(tokenCreateCmd)
}
