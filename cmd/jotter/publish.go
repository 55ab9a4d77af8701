package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/jotter/internal/notes"
)

var publishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Publish a note at a public link, or take it down with --off",
	Long:  `Publishing marks the note public and not a draft, which mints a public link. Taking it down revokes the link for good; publishing again mints a new one.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		off, _ := cmd.Flags().GetBool("off")

		patch := notes.Patch{IsPublic: notes.Some(!off)}
		if !off {
			patch.IsDraft = notes.Some(false)
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		n, err := c.UpdateNote(cmd.Context(), args[0], patch)
		if err != nil {
			return fmt.Errorf("failed to update note: %w", err)
		}

		if n.PublicLinkID == nil {
			fmt.Println(success(fmt.Sprintf("Note %s is private", shortID(n.ID))))
			return nil
		}
		fmt.Println(success(fmt.Sprintf("Note %s published", shortID(n.ID))))
		fmt.Println(publicURL(*n.PublicLinkID))
		return nil
	},
}

func init() {
	publishCmd.Flags().Bool("off", false, "make the note private")
	rootCmd.AddCommand(publishCmd)
}
