package model

import "time"

const (
	DefaultCategoryColor = "#6366f1"
	DefaultCategoryIcon  = "folder"
)

type Category struct {
	ID          string    `json:"id"`
	AuthorID    *string   `json:"author_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnedBy reports whether userID may modify the category.
func (c *Category) OwnedBy(userID string) bool {
	return !c.IsDefault && c.AuthorID != nil && *c.AuthorID == userID
}

// CategoryRef is the slice of a category embedded in a note.
type CategoryRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}
