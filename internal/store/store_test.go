package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/jotter/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	if err := NewUserStore(db).Upsert(context.Background(), id, id+" name", id+"@example.com"); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}
