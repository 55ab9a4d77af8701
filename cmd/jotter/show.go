package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/jotter/internal/client"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a note",
	Long:  `Show one of your notes by id, or any published note by its public link id.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		n, err := c.GetNote(cmd.Context(), args[0])
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("note %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get note: %w", err)
		}

		fmt.Print(formatNoteHeader(n))
		fmt.Println(n.Content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
