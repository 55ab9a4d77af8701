package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/dukerupert/jotter/internal/model"
)

var (
	faint  = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
)

const timeLayout = "2006-01-02 15:04"

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// noteFlags summarizes visibility and encryption as short tags.
func noteFlags(n *model.Note) string {
	var flags []string
	if n.IsDraft {
		flags = append(flags, yellow("draft"))
	}
	if n.Published() {
		flags = append(flags, green("public"))
	}
	if n.IsEncrypted {
		flags = append(flags, cyan("encrypted"))
	}
	return strings.Join(flags, " ")
}

func labelNames(refs []model.LabelRef) string {
	names := make([]string, len(refs))
	for i, l := range refs {
		names[i] = l.Name
	}
	return strings.Join(names, ", ")
}

func formatNoteListItem(n *model.Note) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s  %s %s\n", faint(shortID(n.ID)), bold(n.DisplayTitle()), noteFlags(n))
	if n.Category != nil {
		fmt.Fprintf(&sb, "           %s %s\n", faint("Category:"), n.Category.Name)
	}
	if len(n.Labels) > 0 {
		fmt.Fprintf(&sb, "           %s %s\n", faint("Labels:"), cyan(labelNames(n.Labels)))
	}
	fmt.Fprintf(&sb, "           %s %s\n", faint("Updated:"), faint(n.UpdatedAt.Local().Format(timeLayout)))
	return sb.String()
}

func formatNoteHeader(n *model.Note) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", bold(n.DisplayTitle()), noteFlags(n))
	fmt.Fprintf(&sb, "%s %s\n", faint("ID:"), faint(n.ID))
	fmt.Fprintf(&sb, "%s %s\n", faint("Created:"), faint(n.CreatedAt.Local().Format(timeLayout)))
	fmt.Fprintf(&sb, "%s %s\n", faint("Updated:"), faint(n.UpdatedAt.Local().Format(timeLayout)))
	if n.AutosavedSinceUpdate() {
		fmt.Fprintf(&sb, "%s %s\n", faint("Autosaved:"), yellow(n.LastAutosave.Local().Format(timeLayout)))
	}
	if n.Category != nil {
		fmt.Fprintf(&sb, "%s %s\n", faint("Category:"), n.Category.Name)
	}
	if len(n.Labels) > 0 {
		fmt.Fprintf(&sb, "%s %s\n", faint("Labels:"), cyan(labelNames(n.Labels)))
	}
	if n.PublicLinkID != nil {
		fmt.Fprintf(&sb, "%s %s\n", faint("Link:"), publicURL(*n.PublicLinkID))
	}
	sb.WriteString(separator())
	return sb.String()
}

func publicURL(link string) string {
	return strings.TrimRight(cfg.Client.ServerURL, "/") + "/p/" + link
}

func separator() string {
	return faint(strings.Repeat("─", 50)) + "\n"
}

func success(msg string) string {
	return color.New(color.FgGreen).Sprint("✓ ") + msg
}

func errorLine(msg string) string {
	return color.New(color.FgRed).Sprint("✗ ") + msg
}
