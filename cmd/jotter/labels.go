package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/jotter/internal/client"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List labels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		labels, err := c.ListLabels(cmd.Context())
		if err != nil {
			return fmt.Errorf("list labels: %w", err)
		}
		if len(labels) == 0 {
			fmt.Println("No labels yet.")
			return nil
		}
		for _, l := range labels {
			fmt.Printf("  %s  %s %s\n", faint(shortID(l.ID)), cyan(l.Name), faint(l.Color))
		}
		return nil
	},
}

var labelsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")
		c, err := newClient()
		if err != nil {
			return err
		}
		l, err := c.CreateLabel(cmd.Context(), client.LabelInput{Name: args[0], Color: color})
		if err != nil {
			return fmt.Errorf("create label: %w", err)
		}
		fmt.Println(success(fmt.Sprintf("Created label %s (%s)", l.Name, l.ID)))
		return nil
	},
}

var labelsRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a label",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")
		c, err := newClient()
		if err != nil {
			return err
		}
		l, err := c.UpdateLabel(cmd.Context(), args[0], client.LabelInput{Name: args[1], Color: color})
		if err != nil {
			return fmt.Errorf("update label: %w", err)
		}
		fmt.Println(success(fmt.Sprintf("Label %s is now %s", shortID(l.ID), l.Name)))
		return nil
	},
}

var labelsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a label and detach it from notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteLabel(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete label: %w", err)
		}
		fmt.Println(success("Label deleted"))
		return nil
	},
}

func init() {
	labelsAddCmd.Flags().String("color", "", "hex color, e.g. #10b981")
	labelsRenameCmd.Flags().String("color", "", "hex color, e.g. #10b981")
	labelsCmd.AddCommand(labelsAddCmd, labelsRenameCmd, labelsRmCmd)
	rootCmd.AddCommand(labelsCmd)
}
