package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/jotter/internal/client"
	"github.com/dukerupert/jotter/internal/model"
	"github.com/dukerupert/jotter/internal/query"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Long:  `List your notes, optionally narrowed by category, labels, date, visibility or encryption. The sort order defaults to the one saved with "jotter sort".`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := facetsFromFlags(cmd)
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")

		c, err := newClient()
		if err != nil {
			return err
		}

		if !all {
			page, err := c.ListNotes(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("list notes: %w", err)
			}
			printNotes(page.Notes)
			p := page.Pagination
			if p.HasMore {
				fmt.Println(faint(fmt.Sprintf("\nPage %d of %d (%d notes). Use --page %d for more.", p.Page, p.TotalPages, p.Total, p.Page+1)))
			}
			return nil
		}

		pager := client.NewPager(c, f)
		var shown int
		for pager.HasMore() {
			list, err := pager.Next(cmd.Context())
			if err != nil {
				return fmt.Errorf("list notes: %w", err)
			}
			for i := range list {
				fmt.Print(formatNoteListItem(&list[i]))
			}
			shown += len(list)
		}
		if shown == 0 {
			fmt.Println("No notes found.")
		}
		return nil
	},
}

func printNotes(list []model.Note) {
	if len(list) == 0 {
		fmt.Println("No notes found.")
		return
	}
	for i := range list {
		fmt.Print(formatNoteListItem(&list[i]))
	}
}

// facetsFromFlags reads the shared listing flags. An unset --sort falls back
// to the saved preference.
func facetsFromFlags(cmd *cobra.Command) (query.Facets, error) {
	search, _ := cmd.Flags().GetString("search")
	category, _ := cmd.Flags().GetString("category")
	labels, _ := cmd.Flags().GetString("labels")
	date, _ := cmd.Flags().GetString("date")
	visibility, _ := cmd.Flags().GetString("visibility")
	encryption, _ := cmd.Flags().GetString("encryption")
	drafts, _ := cmd.Flags().GetBool("drafts")
	sort, _ := cmd.Flags().GetString("sort")
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")

	if sort == "" {
		state, err := client.LoadState(cfg.Client.StatePath)
		if err != nil {
			return query.Facets{}, err
		}
		sort = string(state.Sort)
	} else if !query.ValidSort(sort) {
		return query.Facets{}, fmt.Errorf("unknown sort %q", sort)
	}

	f := query.Facets{
		Text:          search,
		CategoryID:    category,
		Date:          query.DateRange(date),
		Visibility:    query.Visibility(visibility),
		Encryption:    query.Encryption(encryption),
		IncludeDrafts: drafts,
		Sort:          query.Sort(sort),
		Page:          page,
		Limit:         limit,
	}
	for _, id := range strings.Split(labels, ",") {
		if id = strings.TrimSpace(id); id != "" {
			f.LabelIDs = append(f.LabelIDs, id)
		}
	}
	return f.Normalize(), nil
}

func addFacetFlags(cmd *cobra.Command) {
	cmd.Flags().String("category", "", "category id")
	cmd.Flags().String("labels", "", "comma-separated label ids (any match)")
	cmd.Flags().String("date", "all", "updated within: all, today, week, month, year")
	cmd.Flags().String("visibility", "all", "all, private, public, draft, published")
	cmd.Flags().String("encryption", "all", "all, encrypted, unencrypted")
	cmd.Flags().Bool("drafts", false, "include drafts")
	cmd.Flags().String("sort", "", "updated_desc, updated_asc, created_desc, created_asc, title_asc, title_desc")
	cmd.Flags().Int("page", 1, "page number")
	cmd.Flags().IntP("limit", "n", query.DefaultLimit, "notes per page")
}

func init() {
	addFacetFlags(listCmd)
	listCmd.Flags().StringP("search", "s", "", "text to match in title or content")
	listCmd.Flags().Bool("all", false, "fetch every page")
	rootCmd.AddCommand(listCmd)
}
