package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/jotter/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue a bearer token signed with the server secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be set to at least 32 characters")
		}
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl <= 0 {
			ttl = cfg.TokenTTL
		}

		tok, expires, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, ttl).Issue(args[0], name, email)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Println(tok)
		fmt.Fprintln(cmd.ErrOrStderr(), faint("expires "+expires.Local().Format(timeLayout)))
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("name", "", "display name")
	tokenCmd.Flags().String("email", "", "email address")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default from config)")
	rootCmd.AddCommand(tokenCmd)
}
