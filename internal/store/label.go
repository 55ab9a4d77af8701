package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/jotter/internal/model"
	"github.com/google/uuid"
)

type LabelStore struct {
	db *sql.DB
}

func NewLabelStore(db *sql.DB) *LabelStore {
	return &LabelStore{db: db}
}

func scanLabel(scanner interface{ Scan(...any) error }) (*model.Label, error) {
	var l model.Label
	err := scanner.Scan(&l.ID, &l.AuthorID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const labelCols = `id, author_id, name, color, created_at, updated_at`

func (s *LabelStore) Create(ctx context.Context, authorID, name, color string) (*model.Label, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO labels (id, author_id, name, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, authorID, name, color, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert label: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *LabelStore) GetByID(ctx context.Context, id string) (*model.Label, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+labelCols+` FROM labels WHERE id = ?`, id)
	l, err := scanLabel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get label: %w", err)
	}
	return l, nil
}

func (s *LabelStore) ListByAuthor(ctx context.Context, authorID string) ([]model.Label, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+labelCols+` FROM labels WHERE author_id = ? ORDER BY name`, authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	var labels []model.Label
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, *l)
	}
	return labels, rows.Err()
}

func (s *LabelStore) Update(ctx context.Context, id, name, color string) (*model.Label, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE labels SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		name, color, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update label: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes the label; note associations go with it.
func (s *LabelStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM labels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete label: %w", err)
	}
	return nil
}

func (s *LabelStore) NameExists(ctx context.Context, authorID, name, excludeID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM labels WHERE author_id = ? AND name = ? AND id != ?`,
		authorID, name, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check label name: %w", err)
	}
	return count > 0, nil
}
