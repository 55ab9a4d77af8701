package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/jotter/internal/model"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrCategoryInUse is returned by Delete when notes still reference the category.
var ErrCategoryInUse = errors.New("category in use")

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func scanCategory(scanner interface{ Scan(...any) error }) (*model.Category, error) {
	var c model.Category
	var authorID sql.NullString
	err := scanner.Scan(
		&c.ID, &authorID, &c.Name, &c.Description, &c.Color, &c.Icon,
		&c.IsDefault, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if authorID.Valid {
		c.AuthorID = &authorID.String
	}
	return &c, nil
}

const categoryCols = `id, author_id, name, description, color, icon, is_default, created_at, updated_at`

func (s *CategoryStore) Create(ctx context.Context, authorID, name, description, color, icon string) (*model.Category, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, author_id, name, description, color, icon, is_default, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		id, authorID, name, description, color, icon, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *CategoryStore) GetByID(ctx context.Context, id string) (*model.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// GetVisible returns the category if it is a default or belongs to userID.
func (s *CategoryStore) GetVisible(ctx context.Context, id, userID string) (*model.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryCols+` FROM categories WHERE id = ? AND (is_default = 1 OR author_id = ?)`,
		id, userID,
	)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get visible category: %w", err)
	}
	return c, nil
}

// ListVisible returns the user's categories and the defaults, ordered by name.
func (s *CategoryStore) ListVisible(ctx context.Context, userID string) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryCols+` FROM categories
		 WHERE author_id = ? OR is_default = 1
		 ORDER BY name, is_default DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (s *CategoryStore) Update(ctx context.Context, id, name, description, color, icon string) (*model.Category, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ?, color = ?, icon = ?, updated_at = ?
		 WHERE id = ? AND is_default = 0`,
		name, description, color, icon, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND is_default = 0`, id)
	if err != nil {
		var serr *sqlite.Error
		// The basic code covers connections without extended result codes.
		if errors.As(err, &serr) && serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return ErrCategoryInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// NameExists checks the user's own categories for name, ignoring excludeID.
func (s *CategoryStore) NameExists(ctx context.Context, userID, name, excludeID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE author_id = ? AND name = ? AND id != ?`,
		userID, name, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return count > 0, nil
}

// InUse reports whether any note references the category.
func (s *CategoryStore) InUse(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM notes WHERE category_id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check category usage: %w", err)
	}
	return exists, nil
}
