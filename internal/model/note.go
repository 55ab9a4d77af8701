package model

import (
	"strings"
	"time"
)

// UntitledNote is the title given to autosaved drafts with a blank title.
const UntitledNote = "Untitled Note"

type Note struct {
	ID               string       `json:"id"`
	AuthorID         string       `json:"author_id"`
	Title            string       `json:"title"`
	Content          string       `json:"content"`
	EncryptedContent *string      `json:"encrypted_content"`
	IsEncrypted      bool         `json:"is_encrypted"`
	IsPublic         bool         `json:"is_public"`
	IsDraft          bool         `json:"is_draft"`
	PublicLinkID     *string      `json:"public_link_id"`
	CategoryID       *string      `json:"category_id"`
	Category         *CategoryRef `json:"category,omitempty"`
	Labels           []LabelRef   `json:"labels"`
	Author           *UserRef     `json:"author,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	LastAutosave     *time.Time   `json:"last_autosave"`
}

// Published reports whether the note is readable through its public link.
func (n *Note) Published() bool {
	return n.IsPublic && !n.IsDraft
}

// DisplayTitle returns the title, substituting UntitledNote for a blank one.
func (n *Note) DisplayTitle() string {
	if strings.TrimSpace(n.Title) == "" {
		return UntitledNote
	}
	return n.Title
}

// AutosavedSinceUpdate reports whether an autosave landed after the last explicit save.
func (n *Note) AutosavedSinceUpdate() bool {
	return n.LastAutosave != nil && n.LastAutosave.After(n.UpdatedAt)
}
