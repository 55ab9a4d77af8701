package notes

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/dukerupert/jotter/internal/model"
)

// Optional records whether a JSON field was present, null, or set.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// IsZero lets encoders with omitzero skip absent fields.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

// Patch is a partial note update. Only fields present in the request are applied.
type Patch struct {
	Title            Optional[string]   `json:"title,omitzero"`
	Content          Optional[string]   `json:"content,omitzero"`
	EncryptedContent Optional[string]   `json:"encrypted_content,omitzero"`
	IsEncrypted      Optional[bool]     `json:"is_encrypted,omitzero"`
	IsPublic         Optional[bool]     `json:"is_public,omitzero"`
	IsDraft          Optional[bool]     `json:"is_draft,omitzero"`
	CategoryID       Optional[string]   `json:"category_id,omitzero"`
	LabelIDs         Optional[[]string] `json:"label_ids,omitzero"`
	IsAutosave       bool               `json:"is_autosave,omitempty"`
}

// Validate checks only the fields the patch supplies.
func (p *Patch) Validate() Errors {
	errs := Errors{}
	if p.Title.Set {
		validateTitle(errs, p.Title.Value)
	}
	if p.Content.Set {
		validateContent(errs, p.Content.Value)
	}
	return errs
}

// TouchesVisibility reports whether the patch supplies either visibility flag.
func (p *Patch) TouchesVisibility() bool {
	return p.IsPublic.Set || p.IsDraft.Set
}

// Apply merges the patch into n, sanitizing text and reconciling the public
// link when visibility is supplied. It stamps LastAutosave for autosave patches.
func (p *Patch) Apply(n *model.Note, now time.Time) error {
	if p.Title.Set {
		n.Title = Sanitize(p.Title.Value)
	}
	if p.Content.Set {
		n.Content = Sanitize(p.Content.Value)
	}
	if p.EncryptedContent.Set {
		if p.EncryptedContent.Null {
			n.EncryptedContent = nil
		} else {
			ec := p.EncryptedContent.Value
			n.EncryptedContent = &ec
		}
	}
	if p.IsEncrypted.Set {
		n.IsEncrypted = p.IsEncrypted.Value
	}
	if p.IsPublic.Set {
		n.IsPublic = p.IsPublic.Value
	}
	if p.IsDraft.Set {
		n.IsDraft = p.IsDraft.Value
	}
	if p.CategoryID.Set {
		if p.CategoryID.Null || p.CategoryID.Value == "" {
			n.CategoryID = nil
		} else {
			id := p.CategoryID.Value
			n.CategoryID = &id
		}
	}
	NormalizeEncryption(n)

	if p.TouchesVisibility() {
		if err := ReconcileLink(n); err != nil {
			return err
		}
	}
	if p.IsAutosave {
		n.LastAutosave = &now
	}
	return nil
}

// NormalizeEncryption keeps content and ciphertext mutually exclusive.
func NormalizeEncryption(n *model.Note) {
	if n.IsEncrypted {
		n.Content = ""
		return
	}
	n.EncryptedContent = nil
}
