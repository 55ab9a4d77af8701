package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/jotter/internal/client"
	"github.com/dukerupert/jotter/internal/query"
)

var sortCmd = &cobra.Command{
	Use:       "sort [order]",
	Short:     "Show or set the default sort order",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"updated_desc", "updated_asc", "created_desc", "created_asc", "title_asc", "title_desc"},
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := client.LoadState(cfg.Client.StatePath)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			fmt.Println(state.Sort)
			return nil
		}

		if !query.ValidSort(args[0]) {
			return fmt.Errorf("unknown sort %q", args[0])
		}
		state.Sort = query.Sort(args[0])
		if err := state.Save(cfg.Client.StatePath); err != nil {
			return err
		}
		fmt.Println(success("Sorting by " + args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sortCmd)
}
