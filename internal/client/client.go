// Package client talks to a jotter server. It encrypts note content on write
// and decrypts it on read, so the server only ever stores ciphertext for
// encrypted notes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/jotter/internal/model"
	"github.com/dukerupert/jotter/internal/notecrypt"
	"github.com/dukerupert/jotter/internal/notes"
	"github.com/dukerupert/jotter/internal/query"
)

var (
	ErrNotFound = errors.New("not found")
	ErrNoCipher = errors.New("no cipher configured")
)

// APIError is a non-2xx response. A 404 matches ErrNotFound.
type APIError struct {
	Status  int
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	parts := make([]string, 0, len(e.Details))
	for field, msg := range e.Details {
		parts = append(parts, field+": "+msg)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Message, e.Status, strings.Join(parts, "; "))
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

type Config struct {
	BaseURL string
	Token   string
	Cipher  notecrypt.Cipher
}

type Client struct {
	baseURL    string
	token      string
	cipher     notecrypt.Cipher
	httpClient *http.Client
}

func New(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		cipher:  cfg.Cipher,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var eb struct {
			Error   string            `json:"error"`
			Details map[string]string `json:"details"`
		}
		if json.NewDecoder(resp.Body).Decode(&eb) == nil && eb.Error != "" {
			apiErr.Message = eb.Error
			apiErr.Details = eb.Details
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) encrypt(text string) (string, error) {
	if c.cipher == nil {
		return "", ErrNoCipher
	}
	return c.cipher.Encrypt(text)
}

// decrypt fills Content from EncryptedContent. Without a cipher the note is
// left as the server sent it.
func (c *Client) decrypt(n *model.Note) {
	if n == nil || !n.IsEncrypted || n.EncryptedContent == nil || c.cipher == nil {
		return
	}
	n.Content = c.cipher.Decrypt(*n.EncryptedContent)
}

func (c *Client) decryptAll(list []model.Note) {
	for i := range list {
		c.decrypt(&list[i])
	}
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

type noteEnvelope struct {
	Message string      `json:"message"`
	Note    *model.Note `json:"note"`
}

// NoteInput is a new note. Encrypt sends Content as ciphertext only.
type NoteInput struct {
	Title      string
	Content    string
	Encrypt    bool
	IsPublic   bool
	IsDraft    *bool
	CategoryID *string
	LabelIDs   []string
}

type createNoteBody struct {
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	EncryptedContent *string  `json:"encrypted_content,omitempty"`
	IsEncrypted      bool     `json:"is_encrypted"`
	IsPublic         bool     `json:"is_public"`
	IsDraft          *bool    `json:"is_draft,omitempty"`
	CategoryID       *string  `json:"category_id,omitempty"`
	LabelIDs         []string `json:"label_ids,omitempty"`
}

func (c *Client) CreateNote(ctx context.Context, in NoteInput) (*model.Note, error) {
	body := createNoteBody{
		Title:      in.Title,
		Content:    in.Content,
		IsPublic:   in.IsPublic,
		IsDraft:    in.IsDraft,
		CategoryID: in.CategoryID,
		LabelIDs:   in.LabelIDs,
	}
	if in.Encrypt {
		ct, err := c.encrypt(in.Content)
		if err != nil {
			return nil, fmt.Errorf("encrypt content: %w", err)
		}
		body.Content = ""
		body.EncryptedContent = &ct
		body.IsEncrypted = true
	}

	var env noteEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/notes", nil, body, &env); err != nil {
		return nil, err
	}
	c.decrypt(env.Note)
	return env.Note, nil
}

// GetNote fetches a note by id, or by public link id when the caller does not own it.
func (c *Client) GetNote(ctx context.Context, id string) (*model.Note, error) {
	var env noteEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/notes/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	c.decrypt(env.Note)
	return env.Note, nil
}

// UpdateNote sends a partial update. Content goes out as ciphertext when the
// patch marks the note encrypted, or leaves the flag unset and the stored note
// is already encrypted.
func (c *Client) UpdateNote(ctx context.Context, id string, p notes.Patch) (*model.Note, error) {
	if p.Content.Set && !p.IsEncrypted.Set {
		current, err := c.GetNote(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.IsEncrypted {
			p.IsEncrypted = notes.Some(true)
		}
	}
	if p.IsEncrypted.Set && p.IsEncrypted.Value && p.Content.Set {
		ct, err := c.encrypt(p.Content.Value)
		if err != nil {
			return nil, fmt.Errorf("encrypt content: %w", err)
		}
		p.EncryptedContent = notes.Some(ct)
		p.Content = notes.Some("")
	}

	var env noteEnvelope
	if err := c.do(ctx, http.MethodPut, "/api/notes/"+url.PathEscape(id), nil, p, &env); err != nil {
		return nil, err
	}
	c.decrypt(env.Note)
	return env.Note, nil
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/notes/"+url.PathEscape(id), nil, nil, nil)
}

type NotePage struct {
	Notes      []model.Note     `json:"notes"`
	Pagination query.Pagination `json:"pagination"`
}

func (c *Client) ListNotes(ctx context.Context, f query.Facets) (*NotePage, error) {
	var page NotePage
	if err := c.do(ctx, http.MethodGet, "/api/notes", f.Encode("search"), nil, &page); err != nil {
		return nil, err
	}
	c.decryptAll(page.Notes)
	return &page, nil
}

// SearchNotes runs a text search. The server answers with flat paging fields,
// which are folded into the same NotePage shape as ListNotes.
func (c *Client) SearchNotes(ctx context.Context, f query.Facets) (*NotePage, error) {
	var resp struct {
		Notes   []model.Note `json:"notes"`
		Total   int          `json:"total"`
		Page    int          `json:"page"`
		Limit   int          `json:"limit"`
		HasMore bool         `json:"hasMore"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notes/search", f.Encode("q"), nil, &resp); err != nil {
		return nil, err
	}
	c.decryptAll(resp.Notes)
	return &NotePage{
		Notes: resp.Notes,
		Pagination: query.Pagination{
			Page:    resp.Page,
			Limit:   resp.Limit,
			Total:   resp.Total,
			HasMore: resp.HasMore,
		},
	}, nil
}

// AutosaveInput is one autosave snapshot. An empty ID starts a new draft.
type AutosaveInput struct {
	ID      string
	Title   string
	Content string
	Encrypt bool
}

type autosaveBody struct {
	ID               string  `json:"id,omitempty"`
	Title            string  `json:"title"`
	Content          string  `json:"content"`
	EncryptedContent *string `json:"encrypted_content,omitempty"`
	IsEncrypted      bool    `json:"is_encrypted"`
}

func (c *Client) Autosave(ctx context.Context, in AutosaveInput) (*model.Note, error) {
	body := autosaveBody{ID: in.ID, Title: in.Title, Content: in.Content}
	if in.Encrypt {
		ct, err := c.encrypt(in.Content)
		if err != nil {
			return nil, fmt.Errorf("encrypt content: %w", err)
		}
		body.Content = ""
		body.EncryptedContent = &ct
		body.IsEncrypted = true
	}

	var env noteEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/notes/autosave", nil, body, &env); err != nil {
		return nil, err
	}
	c.decrypt(env.Note)
	return env.Note, nil
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var resp struct {
		Categories []model.Category `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func (c *Client) CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error) {
	var resp struct {
		Category *model.Category `json:"category"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/categories", nil, in, &resp); err != nil {
		return nil, err
	}
	return resp.Category, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*model.Category, error) {
	var resp struct {
		Category *model.Category `json:"category"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/categories/"+url.PathEscape(id), nil, in, &resp); err != nil {
		return nil, err
	}
	return resp.Category, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil, nil)
}

type LabelInput struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func (c *Client) ListLabels(ctx context.Context) ([]model.Label, error) {
	var resp struct {
		Labels []model.Label `json:"labels"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/labels", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Labels, nil
}

func (c *Client) CreateLabel(ctx context.Context, in LabelInput) (*model.Label, error) {
	var resp struct {
		Label *model.Label `json:"label"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/labels", nil, in, &resp); err != nil {
		return nil, err
	}
	return resp.Label, nil
}

func (c *Client) UpdateLabel(ctx context.Context, id string, in LabelInput) (*model.Label, error) {
	var resp struct {
		Label *model.Label `json:"label"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/labels/"+url.PathEscape(id), nil, in, &resp); err != nil {
		return nil, err
	}
	return resp.Label, nil
}

func (c *Client) DeleteLabel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/labels/"+url.PathEscape(id), nil, nil, nil)
}
