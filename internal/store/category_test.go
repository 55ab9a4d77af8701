package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/jotter/internal/model"
)

func TestCategoryDefaultsSeeded(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u1")
	cs := NewCategoryStore(db)

	cats, err := cs.ListVisible(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 4 {
		t.Fatalf("len = %d, want 4 default categories", len(cats))
	}
	for _, c := range cats {
		if !c.IsDefault || c.AuthorID != nil {
			t.Errorf("category %q should be a default without author", c.Name)
		}
	}
}

func TestCategoryCreateAndListVisible(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	cs := NewCategoryStore(db)
	ctx := context.Background()

	c, err := cs.Create(ctx, "u1", "Recipes", "food", model.DefaultCategoryColor, model.DefaultCategoryIcon)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == "" || c.AuthorID == nil || *c.AuthorID != "u1" {
		t.Errorf("category = %+v", c)
	}
	if c.IsDefault {
		t.Error("user category should not be default")
	}

	mine, _ := cs.ListVisible(ctx, "u1")
	theirs, _ := cs.ListVisible(ctx, "u2")
	if len(mine) != 5 {
		t.Errorf("u1 sees %d categories, want 5", len(mine))
	}
	if len(theirs) != 4 {
		t.Errorf("u2 sees %d categories, want 4", len(theirs))
	}
	for i := 1; i < len(mine); i++ {
		if mine[i-1].Name > mine[i].Name {
			t.Errorf("categories not ordered by name: %q before %q", mine[i-1].Name, mine[i].Name)
		}
	}

	if got, _ := cs.GetVisible(ctx, c.ID, "u2"); got != nil {
		t.Error("u2 should not see u1's category")
	}
	if got, _ := cs.GetVisible(ctx, c.ID, "u1"); got == nil {
		t.Error("u1 should see own category")
	}
}

func TestCategoryNameExists(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	cs := NewCategoryStore(db)
	ctx := context.Background()

	c, _ := cs.Create(ctx, "u1", "Recipes", "", "#000000", "folder")

	if exists, _ := cs.NameExists(ctx, "u1", "Recipes", ""); !exists {
		t.Error("expected name to exist for u1")
	}
	if exists, _ := cs.NameExists(ctx, "u1", "Recipes", c.ID); exists {
		t.Error("excluded id should not count")
	}
	if exists, _ := cs.NameExists(ctx, "u2", "Recipes", ""); exists {
		t.Error("names are unique per owner only")
	}
}

func TestCategoryUpdateSkipsDefaults(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCategoryStore(db)
	ctx := context.Background()

	const general = "00000000-0000-4000-8000-000000000001"
	got, err := cs.Update(ctx, general, "Renamed", "", "#000000", "folder")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "General" {
		t.Errorf("default category renamed to %q", got.Name)
	}
}

func TestCategoryInUse(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u1")
	cs := NewCategoryStore(db)
	ns := NewNoteStore(db)
	ctx := context.Background()

	c, _ := cs.Create(ctx, "u1", "Recipes", "", "#000000", "folder")
	if used, _ := cs.InUse(ctx, c.ID); used {
		t.Error("fresh category should be unused")
	}

	if _, err := ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "Soup", CategoryID: &c.ID}); err != nil {
		t.Fatalf("create note: %v", err)
	}
	if used, _ := cs.InUse(ctx, c.ID); !used {
		t.Error("category should be in use")
	}

	if err := cs.Delete(ctx, c.ID); !errors.Is(err, ErrCategoryInUse) {
		t.Errorf("delete referenced category = %v, want ErrCategoryInUse", err)
	}
}

func TestCategoryDelete(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u1")
	cs := NewCategoryStore(db)
	ctx := context.Background()

	c, _ := cs.Create(ctx, "u1", "Temp", "", "#000000", "folder")
	if err := cs.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := cs.GetByID(ctx, c.ID); got != nil {
		t.Error("category should be gone")
	}
}
