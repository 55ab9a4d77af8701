package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search note titles and content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := facetsFromFlags(cmd)
		if err != nil {
			return err
		}
		f.Text = strings.Join(args, " ")

		c, err := newClient()
		if err != nil {
			return err
		}
		page, err := c.SearchNotes(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		printNotes(page.Notes)
		if page.Pagination.HasMore {
			fmt.Println(faint(fmt.Sprintf("\n%d matches. Use --page %d for more.", page.Pagination.Total, page.Pagination.Page+1)))
		}
		return nil
	},
}

func init() {
	addFacetFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}
