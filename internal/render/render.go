// Package render turns published notes into standalone HTML pages.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dukerupert/jotter/internal/model"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer renders markdown through an allow-list policy, so stored content
// is never trusted at display time.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	tmpl   *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: policy,
		tmpl:   tmpl,
	}, nil
}

// Markdown converts src to sanitized HTML.
func (r *Renderer) Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}

type notePage struct {
	Title     string
	Body      template.HTML
	Encrypted bool
	Category  *model.CategoryRef
	Labels    []model.LabelRef
	Author    string
	UpdatedAt time.Time
}

// Note writes the public page for n. Encrypted notes show a placeholder
// instead of their ciphertext.
func (r *Renderer) Note(w io.Writer, n *model.Note) error {
	page := notePage{
		Title:     n.DisplayTitle(),
		Encrypted: n.IsEncrypted,
		Category:  n.Category,
		Labels:    n.Labels,
		UpdatedAt: n.UpdatedAt,
	}
	if n.Author != nil {
		page.Author = n.Author.Name
	}
	if !n.IsEncrypted {
		body, err := r.Markdown(n.Content)
		if err != nil {
			return err
		}
		page.Body = body
	}
	return r.tmpl.ExecuteTemplate(w, "note.html", page)
}

// NotFound writes the page shown for dead or unknown links.
func (r *Renderer) NotFound(w io.Writer) error {
	return r.tmpl.ExecuteTemplate(w, "not_found.html", nil)
}
