package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		c, err := newClient()
		if err != nil {
			return err
		}
		n, err := c.GetNote(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get note: %w", err)
		}

		if !force {
			fmt.Printf("Delete note %q (%s)? [y/N] ", n.DisplayTitle(), shortID(n.ID))
			response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := c.DeleteNote(cmd.Context(), n.ID); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		fmt.Println(success(fmt.Sprintf("Deleted note %s", shortID(n.ID))))
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolP("force", "f", false, "skip confirmation")
	rootCmd.AddCommand(rmCmd)
}
