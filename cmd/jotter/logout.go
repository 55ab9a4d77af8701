package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/jotter/internal/notecrypt"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the local encryption key",
	Long:  `Delete the local note key. Notes encrypted with it can no longer be read on this machine.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := notecrypt.NewFileKeyStore(cfg.Client.KeyPath)
		if err := keys.Clear(); err != nil {
			return fmt.Errorf("clear key: %w", err)
		}
		fmt.Println(success("Removed key at " + keys.Path()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
