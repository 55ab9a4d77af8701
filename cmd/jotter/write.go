package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/jotter/internal/client"
)

var writeCmd = &cobra.Command{
	Use:   "write [title]",
	Short: "Write a draft from stdin with autosave",
	Long:  `Read lines from stdin into a draft. Edits are autosaved after a pause in typing and flushed on end of input.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		delay, _ := cmd.Flags().GetDuration("delay")

		var title string
		if len(args) == 1 {
			title = args[0]
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		var content strings.Builder
		if id != "" {
			existing, err := c.GetNote(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to get note: %w", err)
			}
			if title == "" {
				title = existing.Title
			}
			content.WriteString(existing.Content)
		}

		saver := client.NewAutosaver(c, encrypt, logger)
		saver.SetDelay(delay)
		saver.SetID(id)
		defer saver.Stop()

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if content.Len() > 0 {
				content.WriteString("\n")
			}
			content.WriteString(scanner.Text())
			saver.Edit(title, content.String())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		if err := saver.Flush(cmd.Context()); err != nil {
			return fmt.Errorf("final autosave: %w", err)
		}
		if saver.ID() == "" {
			fmt.Println("Nothing to save.")
			return nil
		}
		fmt.Println(success(fmt.Sprintf("Draft %s saved", shortID(saver.ID()))))
		return nil
	},
}

func init() {
	writeCmd.Flags().String("id", "", "continue an existing note")
	writeCmd.Flags().Bool("encrypt", false, "encrypt content with the local key")
	writeCmd.Flags().Duration("delay", client.DefaultAutosaveDelay, "autosave debounce window")
	rootCmd.AddCommand(writeCmd)
}
