package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/jotter/internal/client"
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a new note",
	Long:  `Create a note with the given title. Content comes from --content, --file, or stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contentFlag, _ := cmd.Flags().GetString("content")
		fileFlag, _ := cmd.Flags().GetString("file")
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		public, _ := cmd.Flags().GetBool("public")
		publish, _ := cmd.Flags().GetBool("publish")
		category, _ := cmd.Flags().GetString("category")
		labels, _ := cmd.Flags().GetString("labels")

		var content string
		switch {
		case contentFlag != "":
			content = contentFlag
		case fileFlag != "":
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			content = string(data)
		default:
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			content = string(data)
		}

		in := client.NoteInput{
			Title:    args[0],
			Content:  content,
			Encrypt:  encrypt,
			IsPublic: public || publish,
		}
		if publish {
			draft := false
			in.IsDraft = &draft
		}
		if category != "" {
			in.CategoryID = &category
		}
		for _, id := range strings.Split(labels, ",") {
			if id = strings.TrimSpace(id); id != "" {
				in.LabelIDs = append(in.LabelIDs, id)
			}
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		n, err := c.CreateNote(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("failed to create note: %w", err)
		}

		fmt.Println(success(fmt.Sprintf("Created note %s", shortID(n.ID))))
		if n.PublicLinkID != nil {
			fmt.Println(faint("Public at ") + publicURL(*n.PublicLinkID))
		}
		return nil
	},
}

func init() {
	addCmd.Flags().String("content", "", "note content (inline)")
	addCmd.Flags().String("file", "", "read content from file")
	addCmd.Flags().Bool("encrypt", false, "encrypt content with the local key")
	addCmd.Flags().Bool("public", false, "mark public (link appears once published)")
	addCmd.Flags().Bool("publish", false, "publish now (public and not a draft)")
	addCmd.Flags().String("category", "", "category id")
	addCmd.Flags().String("labels", "", "comma-separated label ids")
	rootCmd.AddCommand(addCmd)
}
