package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/jotter/internal/model"
	"github.com/dukerupert/jotter/internal/query"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// NoteStore persists notes and their label associations. Listing queries are
// composed dynamically, so it works through sqlx for IN expansion and struct scans.
type NoteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: sqlx.NewDb(db, "sqlite3"), now: time.Now}
}

type noteRow struct {
	ID               string         `db:"id"`
	AuthorID         string         `db:"author_id"`
	Title            string         `db:"title"`
	Content          string         `db:"content"`
	EncryptedContent sql.NullString `db:"encrypted_content"`
	IsEncrypted      bool           `db:"is_encrypted"`
	IsPublic         bool           `db:"is_public"`
	IsDraft          bool           `db:"is_draft"`
	PublicLinkID     sql.NullString `db:"public_link_id"`
	CategoryID       sql.NullString `db:"category_id"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	LastAutosave     sql.NullTime   `db:"last_autosave"`
	CategoryName     sql.NullString `db:"category_name"`
	CategoryColor    sql.NullString `db:"category_color"`
	CategoryIcon     sql.NullString `db:"category_icon"`
	AuthorName       sql.NullString `db:"author_name"`
	AuthorEmail      sql.NullString `db:"author_email"`
}

func (r *noteRow) toModel() model.Note {
	n := model.Note{
		ID:          r.ID,
		AuthorID:    r.AuthorID,
		Title:       r.Title,
		Content:     r.Content,
		IsEncrypted: r.IsEncrypted,
		IsPublic:    r.IsPublic,
		IsDraft:     r.IsDraft,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Labels:      []model.LabelRef{},
		Author:      &model.UserRef{ID: r.AuthorID, Name: r.AuthorName.String, Email: r.AuthorEmail.String},
	}
	if r.EncryptedContent.Valid {
		n.EncryptedContent = &r.EncryptedContent.String
	}
	if r.PublicLinkID.Valid {
		n.PublicLinkID = &r.PublicLinkID.String
	}
	if r.CategoryID.Valid {
		n.CategoryID = &r.CategoryID.String
		n.Category = &model.CategoryRef{
			ID:    r.CategoryID.String,
			Name:  r.CategoryName.String,
			Color: r.CategoryColor.String,
			Icon:  r.CategoryIcon.String,
		}
	}
	if r.LastAutosave.Valid {
		t := r.LastAutosave.Time
		n.LastAutosave = &t
	}
	return n
}

const noteSelect = `SELECT n.id, n.author_id, n.title, n.content, n.encrypted_content,
	n.is_encrypted, n.is_public, n.is_draft, n.public_link_id, n.category_id,
	n.created_at, n.updated_at, n.last_autosave,
	c.name AS category_name, c.color AS category_color, c.icon AS category_icon,
	u.name AS author_name, u.email AS author_email
	FROM notes n
	LEFT JOIN categories c ON c.id = n.category_id
	LEFT JOIN users u ON u.id = n.author_id`

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Create inserts n, assigning an id when it has none, and returns the stored note.
func (s *NoteStore) Create(ctx context.Context, n *model.Note) (*model.Note, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, author_id, title, content, encrypted_content, is_encrypted, is_public,
		 is_draft, public_link_id, category_id, created_at, updated_at, last_autosave)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.AuthorID, n.Title, n.Content, nullString(n.EncryptedContent), n.IsEncrypted, n.IsPublic,
		n.IsDraft, nullString(n.PublicLinkID), nullString(n.CategoryID), now, now, nullTime(n.LastAutosave),
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return s.GetByID(ctx, n.ID)
}

func (s *NoteStore) getOne(ctx context.Context, where string, args ...any) (*model.Note, error) {
	var row noteRow
	err := s.db.GetContext(ctx, &row, noteSelect+` WHERE `+where, args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	notes := []model.Note{row.toModel()}
	if err := s.attachLabelRefs(ctx, notes); err != nil {
		return nil, err
	}
	return &notes[0], nil
}

func (s *NoteStore) GetByID(ctx context.Context, id string) (*model.Note, error) {
	n, err := s.getOne(ctx, `n.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// GetOwned returns the note only when authorID owns it.
func (s *NoteStore) GetOwned(ctx context.Context, id, authorID string) (*model.Note, error) {
	n, err := s.getOne(ctx, `n.id = ? AND n.author_id = ?`, id, authorID)
	if err != nil {
		return nil, fmt.Errorf("get owned note: %w", err)
	}
	return n, nil
}

// GetByPublicLink resolves a live public link to a published note.
func (s *NoteStore) GetByPublicLink(ctx context.Context, linkID string) (*model.Note, error) {
	if linkID == "" {
		return nil, nil
	}
	n, err := s.getOne(ctx, `n.public_link_id = ? AND n.is_public = 1 AND n.is_draft = 0`, linkID)
	if err != nil {
		return nil, fmt.Errorf("get note by link: %w", err)
	}
	return n, nil
}

// Update writes every mutable field of n for its owner and bumps updated_at.
// It returns nil when the note does not exist or belongs to someone else.
func (s *NoteStore) Update(ctx context.Context, n *model.Note) (*model.Note, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, encrypted_content = ?, is_encrypted = ?, is_public = ?,
		 is_draft = ?, public_link_id = ?, category_id = ?, last_autosave = ?, updated_at = ?
		 WHERE id = ? AND author_id = ?`,
		n.Title, n.Content, nullString(n.EncryptedContent), n.IsEncrypted, n.IsPublic,
		n.IsDraft, nullString(n.PublicLinkID), nullString(n.CategoryID), nullTime(n.LastAutosave), s.now().UTC(),
		n.ID, n.AuthorID,
	)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, n.ID)
}

// AutosaveInput is the content snapshot an autosave writes.
type AutosaveInput struct {
	Title            string
	Content          string
	EncryptedContent *string
	IsEncrypted      bool
}

// Autosave overwrites the content snapshot of an owned note and stamps
// last_autosave. Visibility and updated_at are left alone.
func (s *NoteStore) Autosave(ctx context.Context, id, authorID string, in AutosaveInput) (*model.Note, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, encrypted_content = ?, is_encrypted = ?, last_autosave = ?
		 WHERE id = ? AND author_id = ?`,
		in.Title, in.Content, nullString(in.EncryptedContent), in.IsEncrypted, s.now().UTC(),
		id, authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("autosave note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

// Delete removes an owned note and reports whether anything was deleted.
func (s *NoteStore) Delete(ctx context.Context, id, authorID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND author_id = ?`, id, authorID)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// AttachLabels links the note to those of labelIDs the author owns. Unknown or
// foreign labels are skipped. It returns how many associations were added.
func (s *NoteStore) AttachLabels(ctx context.Context, noteID, authorID string, labelIDs []string) (int64, error) {
	if len(labelIDs) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(
		`INSERT OR IGNORE INTO note_labels (note_id, label_id)
		 SELECT ?, id FROM labels WHERE author_id = ? AND id IN (?)`,
		noteID, authorID, labelIDs,
	)
	if err != nil {
		return 0, fmt.Errorf("expand label ids: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("attach labels: %w", err)
	}
	return res.RowsAffected()
}

// ReplaceLabels drops every association of the note, then attaches labelIDs.
func (s *NoteStore) ReplaceLabels(ctx context.Context, noteID, authorID string, labelIDs []string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM note_labels WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("clear labels: %w", err)
	}
	if _, err := s.AttachLabels(ctx, noteID, authorID, labelIDs); err != nil {
		return err
	}
	return nil
}

type labelRefRow struct {
	NoteID string `db:"note_id"`
	ID     string `db:"id"`
	Name   string `db:"name"`
	Color  string `db:"color"`
}

func (s *NoteStore) attachLabelRefs(ctx context.Context, notes []model.Note) error {
	if len(notes) == 0 {
		return nil
	}
	ids := make([]string, len(notes))
	index := make(map[string]int, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
		index[n.ID] = i
	}

	q, args, err := sqlx.In(
		`SELECT nl.note_id, l.id, l.name, l.color FROM note_labels nl
		 JOIN labels l ON l.id = nl.label_id
		 WHERE nl.note_id IN (?) ORDER BY l.name`, ids,
	)
	if err != nil {
		return fmt.Errorf("expand note ids: %w", err)
	}
	var rows []labelRefRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return fmt.Errorf("load note labels: %w", err)
	}
	for _, r := range rows {
		i := index[r.NoteID]
		notes[i].Labels = append(notes[i].Labels, model.LabelRef{ID: r.ID, Name: r.Name, Color: r.Color})
	}
	return nil
}

const titleSortKey = `fold(CASE WHEN TRIM(n.title) = '' THEN 'Untitled Note' ELSE n.title END)`

var orderBy = map[query.Sort]string{
	query.SortUpdatedDesc: `n.updated_at DESC`,
	query.SortUpdatedAsc:  `n.updated_at ASC`,
	query.SortCreatedDesc: `n.created_at DESC`,
	query.SortCreatedAsc:  `n.created_at ASC`,
	query.SortTitleAsc:    titleSortKey + ` ASC`,
	query.SortTitleDesc:   titleSortKey + ` DESC`,
}

// filter builds the WHERE clause for a listing. Every facet is optional and
// the predicates are ANDed together.
func (s *NoteStore) filter(authorID string, f query.Facets) (string, []any) {
	conds := []string{`n.author_id = ?`}
	args := []any{authorID}

	// Asking for draft visibility implies including drafts.
	if !f.IncludeDrafts && f.Visibility != query.VisibilityDraft {
		conds = append(conds, `n.is_draft = 0`)
	}

	switch f.Visibility {
	case query.VisibilityPrivate:
		conds = append(conds, `n.is_public = 0`)
	case query.VisibilityPublic:
		conds = append(conds, `n.is_public = 1`)
	case query.VisibilityDraft:
		conds = append(conds, `n.is_draft = 1`)
	case query.VisibilityPublished:
		conds = append(conds, `n.is_draft = 0`)
	}

	switch f.Encryption {
	case query.EncryptionEncrypted:
		conds = append(conds, `n.is_encrypted = 1`)
	case query.EncryptionUnencrypted:
		conds = append(conds, `n.is_encrypted = 0`)
	}

	if f.CategoryID != "" {
		conds = append(conds, `n.category_id = ?`)
		args = append(args, f.CategoryID)
	}

	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		conds = append(conds, `(INSTR(fold(n.title), ?) > 0 OR INSTR(fold(n.content), ?) > 0)`)
		args = append(args, needle, needle)
	}

	if since, ok := query.Since(f.Date, s.now()); ok {
		conds = append(conds, `n.updated_at >= ?`)
		args = append(args, since.UTC())
	}

	if len(f.LabelIDs) > 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM note_labels nl WHERE nl.note_id = n.id AND nl.label_id IN (?))`)
		args = append(args, f.LabelIDs)
	}

	return strings.Join(conds, " AND "), args
}

// List returns one page of the author's notes matching f, plus the total
// number of matches across all pages.
func (s *NoteStore) List(ctx context.Context, authorID string, f query.Facets) ([]model.Note, int, error) {
	f = f.Normalize()
	where, args := s.filter(authorID, f)

	countQ, countArgs, err := sqlx.In(`SELECT COUNT(*) FROM notes n WHERE `+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("expand count query: %w", err)
	}
	var total int
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(countQ), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count notes: %w", err)
	}

	notes := []model.Note{}
	if total == 0 || f.Offset() >= total {
		return notes, total, nil
	}

	listQ, listArgs, err := sqlx.In(
		noteSelect+` WHERE `+where+` ORDER BY `+orderBy[f.Sort]+`, n.id LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("expand list query: %w", err)
	}
	var rows []noteRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(listQ), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}
	for i := range rows {
		notes = append(notes, rows[i].toModel())
	}
	if err := s.attachLabelRefs(ctx, notes); err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}
