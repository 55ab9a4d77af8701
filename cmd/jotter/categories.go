package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/jotter/internal/client"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		cats, err := c.ListCategories(cmd.Context())
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		for _, cat := range cats {
			line := fmt.Sprintf("  %s  %s %s", faint(shortID(cat.ID)), bold(cat.Name), faint(cat.Icon))
			if cat.IsDefault {
				line += " " + faint("(default)")
			}
			fmt.Println(line)
			if cat.Description != "" {
				fmt.Printf("           %s\n", faint(cat.Description))
			}
		}
		return nil
	},
}

func categoryInput(cmd *cobra.Command, name string) client.CategoryInput {
	description, _ := cmd.Flags().GetString("description")
	color, _ := cmd.Flags().GetString("color")
	icon, _ := cmd.Flags().GetString("icon")
	return client.CategoryInput{Name: name, Description: description, Color: color, Icon: icon}
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		cat, err := c.CreateCategory(cmd.Context(), categoryInput(cmd, args[0]))
		if err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		fmt.Println(success(fmt.Sprintf("Created category %s (%s)", cat.Name, cat.ID)))
		return nil
	},
}

var categoriesEditCmd = &cobra.Command{
	Use:   "edit <id> <name>",
	Short: "Update one of your categories",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		cat, err := c.UpdateCategory(cmd.Context(), args[0], categoryInput(cmd, args[1]))
		if err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		fmt.Println(success(fmt.Sprintf("Updated category %s", cat.Name)))
		return nil
	},
}

var categoriesRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an unused category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteCategory(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		fmt.Println(success("Category deleted"))
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{categoriesAddCmd, categoriesEditCmd} {
		cmd.Flags().String("description", "", "short description")
		cmd.Flags().String("color", "", "hex color, e.g. #6366f1")
		cmd.Flags().String("icon", "", "icon name")
	}
	categoriesCmd.AddCommand(categoriesAddCmd, categoriesEditCmd, categoriesRmCmd)
	rootCmd.AddCommand(categoriesCmd)
}
