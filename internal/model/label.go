package model

import "time"

const DefaultLabelColor = "#10b981"

type Label struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LabelRef is the slice of a label embedded in a note.
type LabelRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
