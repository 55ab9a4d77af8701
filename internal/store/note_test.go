package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/jotter/internal/model"
	"github.com/dukerupert/jotter/internal/query"
)

func setupNoteTestDB(t *testing.T) (*sql.DB, *NoteStore) {
	t.Helper()
	db := setupTestDB(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	return db, NewNoteStore(db)
}

func strPtr(s string) *string { return &s }

func TestNoteCreateAndGet(t *testing.T) {
	_, ns := setupNoteTestDB(t)
	ctx := context.Background()

	n, err := ns.Create(ctx, &model.Note{
		AuthorID: "u1",
		Title:    "Groceries",
		Content:  "milk",
		IsDraft:  true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.ID == "" {
		t.Fatal("expected generated id")
	}
	if n.Title != "Groceries" || n.Content != "milk" || !n.IsDraft {
		t.Errorf("note = %+v", n)
	}
	if n.Author == nil || n.Author.Name != "u1 name" {
		t.Errorf("author = %+v", n.Author)
	}
	if n.Labels == nil {
		t.Error("labels should be an empty slice, not nil")
	}
	if n.CreatedAt.IsZero() || !n.CreatedAt.Equal(n.UpdatedAt) {
		t.Errorf("timestamps = %v / %v", n.CreatedAt, n.UpdatedAt)
	}

	if got, _ := ns.GetOwned(ctx, n.ID, "u2"); got != nil {
		t.Error("u2 must not read u1's note")
	}
	if got, _ := ns.GetOwned(ctx, n.ID, "u1"); got == nil {
		t.Error("owner should read note")
	}
	if got, _ := ns.GetByID(ctx, "missing"); got != nil {
		t.Error("missing note should be nil")
	}
}

func TestNoteCategoryJoined(t *testing.T) {
	_, ns := setupNoteTestDB(t)
	ctx := context.Background()

	general := "00000000-0000-4000-8000-000000000001"
	n, err := ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "T", CategoryID: &general})
	if err != nil {
		t.Fatal(err)
	}
	if n.Category == nil || n.Category.Name != "General" || n.Category.Icon != "folder" {
		t.Errorf("category = %+v", n.Category)
	}
}

func TestNoteGetByPublicLink(t *testing.T) {
	_, ns := setupNoteTestDB(t)
	ctx := context.Background()

	n, _ := ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "Pub", IsPublic: true, PublicLinkID: strPtr("link-1")})
	if got, _ := ns.GetByPublicLink(ctx, "link-1"); got == nil || got.ID != n.ID {
		t.Fatalf("link lookup = %+v", got)
	}

	n.IsDraft = true
	if _, err := ns.Update(ctx, n); err != nil {
		t.Fatal(err)
	}
	if got, _ := ns.GetByPublicLink(ctx, "link-1"); got != nil {
		t.Error("draft should not resolve by link")
	}
	if got, _ := ns.GetByPublicLink(ctx, ""); got != nil {
		t.Error("empty link should not resolve")
	}
}

func TestNoteUpdateOwnerScoped(t *testing.T) {
	_, ns := setupNoteTestDB(t)
	ctx := context.Background()

	n, _ := ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "Old"})
	ns.now = func() time.Time { return time.Now().Add(time.Minute) }

	n.Title = "New"
	got, err := ns.Update(ctx, n)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "New" {
		t.Errorf("title = %q, want %q", got.Title, "New")
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Error("updated_at should advance")
	}

	stolen := *got
	stolen.AuthorID = "u2"
	stolen.Title = "Hijacked"
	if res, err := ns.Update(ctx, &stolen); err != nil || res != nil {
		t.Errorf("foreign update = %+v, %v; want nil, nil", res, err)
	}
	after, _ := ns.GetByID(ctx, n.ID)
	if after.Title != "New" {
		t.Errorf("title = %q, foreign update leaked", after.Title)
	}
}

func TestNoteAutosaveKeepsVisibility(t *testing.T) {
	_, ns := setupNoteTestDB(t)
	ctx := context.Background()

	n, _ := ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "T", IsPublic: true, IsDraft: false, PublicLinkID: strPtr("l")})
	got, err := ns.Autosave(ctx, n.ID, "u1", AutosaveInput{Title: "T2", Content: "typing"})
	if err != nil {
		t.Fatalf("autosave: %v", err)
	}
	if got.Title != "T2" || got.Content != "typing" {
		t.Errorf("note = %+v", got)
	}
	if !got.IsPublic || got.IsDraft || got.PublicLinkID == nil {
		t.Error("autosave must not touch visibility")
	}
	if got.LastAutosave == nil {
		t.Error("last_autosave should be set")
	}
	if !got.UpdatedAt.Equal(n.UpdatedAt) {
		t.Error("autosave should not bump updated_at")
	}

	if res, _ := ns.Autosave(ctx, n.ID, "u2", AutosaveInput{Title: "x"}); res != nil {
		t.Error("autosave by non-owner should find nothing")
	}
}

func TestNoteDeleteCascadesLabels(t *testing.T) {
	db, ns := setupNoteTestDB(t)
	ctx := context.Background()
	ls := NewLabelStore(db)

	l, _ := ls.Create(ctx, "u1", "work", model.DefaultLabelColor)
	n, _ := ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "T"})
	ns.AttachLabels(ctx, n.ID, "u1", []string{l.ID})

	if ok, _ := ns.Delete(ctx, n.ID, "u2"); ok {
		t.Error("non-owner delete should report nothing deleted")
	}
	ok, err := ns.Delete(ctx, n.ID, "u1")
	if err != nil || !ok {
		t.Fatalf("delete = %v, %v", ok, err)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM note_labels WHERE note_id = ?`, n.ID).Scan(&count)
	if count != 0 {
		t.Errorf("note_labels rows = %d, want 0", count)
	}
}

func TestNoteAttachLabelsOnlyOwned(t *testing.T) {
	db, ns := setupNoteTestDB(t)
	ctx := context.Background()
	ls := NewLabelStore(db)

	mine, _ := ls.Create(ctx, "u1", "mine", model.DefaultLabelColor)
	theirs, _ := ls.Create(ctx, "u2", "theirs", model.DefaultLabelColor)
	n, _ := ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "T"})

	added, err := ns.AttachLabels(ctx, n.ID, "u1", []string{mine.ID, theirs.ID, "bogus"})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}

	got, _ := ns.GetByID(ctx, n.ID)
	if len(got.Labels) != 1 || got.Labels[0].Name != "mine" {
		t.Errorf("labels = %+v", got.Labels)
	}

	other, _ := ls.Create(ctx, "u1", "other", model.DefaultLabelColor)
	if err := ns.ReplaceLabels(ctx, n.ID, "u1", []string{other.ID}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ = ns.GetByID(ctx, n.ID)
	if len(got.Labels) != 1 || got.Labels[0].ID != other.ID {
		t.Errorf("labels after replace = %+v", got.Labels)
	}

	if err := ns.ReplaceLabels(ctx, n.ID, "u1", nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = ns.GetByID(ctx, n.ID)
	if len(got.Labels) != 0 {
		t.Errorf("labels after clear = %+v", got.Labels)
	}
}

func listTitles(t *testing.T, ns *NoteStore, author string, f query.Facets) ([]string, int) {
	t.Helper()
	notes, total, err := ns.List(context.Background(), author, f.Normalize())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	titles := make([]string, len(notes))
	for i, n := range notes {
		titles[i] = n.Title
	}
	return titles, total
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNoteListVisibilityAndTitleSort(t *testing.T) {
	_, ns := setupNoteTestDB(t)
	ctx := context.Background()

	for _, n := range []model.Note{
		{AuthorID: "u1", Title: "banana", IsPublic: true},
		{AuthorID: "u1", Title: "Apple", IsPublic: true},
		{AuthorID: "u1", Title: "", IsPublic: true},
		{AuthorID: "u1", Title: "Zebra", IsPublic: true},
		{AuthorID: "u1", Title: "cherry", IsPublic: true, IsDraft: true},
		{AuthorID: "u1", Title: "date", IsPublic: false},
		{AuthorID: "u2", Title: "aardvark", IsPublic: true},
	} {
		n := n
		if _, err := ns.Create(ctx, &n); err != nil {
			t.Fatal(err)
		}
	}

	titles, total := listTitles(t, ns, "u1", query.Facets{
		Visibility: query.VisibilityPublic,
		Sort:       query.SortTitleAsc,
	})
	want := []string{"Apple", "banana", "", "Zebra"}
	if !equalStrings(titles, want) || total != 4 {
		t.Errorf("titles = %q (total %d), want %q", titles, total, want)
	}

	titles, _ = listTitles(t, ns, "u1", query.Facets{
		Visibility: query.VisibilityPublic,
		Sort:       query.SortTitleDesc,
	})
	want = []string{"Zebra", "", "banana", "Apple"}
	if !equalStrings(titles, want) {
		t.Errorf("desc titles = %q, want %q", titles, want)
	}

	_, total = listTitles(t, ns, "u1", query.Facets{IncludeDrafts: true})
	if total != 6 {
		t.Errorf("all notes total = %d, want 6", total)
	}
	_, total = listTitles(t, ns, "u1", query.Facets{Visibility: query.VisibilityPrivate, IncludeDrafts: true})
	if total != 1 {
		t.Errorf("private total = %d, want 1", total)
	}
	_, total = listTitles(t, ns, "u1", query.Facets{Visibility: query.VisibilityDraft, IncludeDrafts: true})
	if total != 1 {
		t.Errorf("draft total = %d, want 1", total)
	}
}

func TestNoteListTextEncryptionCategory(t *testing.T) {
	_, ns := setupNoteTestDB(t)
	ctx := context.Background()
	work := "00000000-0000-4000-8000-000000000002"

	ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "Meeting", Content: "Discuss BUDGET", CategoryID: &work})
	ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "Budget plan", Content: "numbers"})
	ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "Secret", IsEncrypted: true, EncryptedContent: strPtr("abc")})
	ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "100% sure", Content: "x"})

	_, total := listTitles(t, ns, "u1", query.Facets{Text: "budget", IncludeDrafts: true})
	if total != 2 {
		t.Errorf("text total = %d, want 2", total)
	}
	titles, _ := listTitles(t, ns, "u1", query.Facets{Text: "%", IncludeDrafts: true})
	if !equalStrings(titles, []string{"100% sure"}) {
		t.Errorf("literal %% search = %q", titles)
	}
	titles, _ = listTitles(t, ns, "u1", query.Facets{Encryption: query.EncryptionEncrypted, IncludeDrafts: true})
	if !equalStrings(titles, []string{"Secret"}) {
		t.Errorf("encrypted = %q", titles)
	}
	_, total = listTitles(t, ns, "u1", query.Facets{Encryption: query.EncryptionUnencrypted, IncludeDrafts: true})
	if total != 3 {
		t.Errorf("unencrypted total = %d, want 3", total)
	}
	titles, _ = listTitles(t, ns, "u1", query.Facets{CategoryID: work, IncludeDrafts: true})
	if !equalStrings(titles, []string{"Meeting"}) {
		t.Errorf("category = %q", titles)
	}
}

func TestNoteListFoldsUnicodeCase(t *testing.T) {
	_, ns := setupNoteTestDB(t)
	ctx := context.Background()

	for _, title := range []string{"Ébc", "Zebra", "éab"} {
		if _, err := ns.Create(ctx, &model.Note{AuthorID: "u1", Title: title, Content: "Crème Brûlée"}); err != nil {
			t.Fatal(err)
		}
	}

	titles, _ := listTitles(t, ns, "u1", query.Facets{Sort: query.SortTitleAsc})
	want := []string{"Zebra", "éab", "Ébc"}
	if !equalStrings(titles, want) {
		t.Errorf("title_asc = %q, want %q", titles, want)
	}

	titles, _ = listTitles(t, ns, "u1", query.Facets{Text: "éB"})
	if !equalStrings(titles, []string{"Ébc"}) {
		t.Errorf("title search = %q", titles)
	}
	_, total := listTitles(t, ns, "u1", query.Facets{Text: "CRÈME"})
	if total != 3 {
		t.Errorf("content search total = %d, want 3", total)
	}
}

func TestNoteListLabelsExactTotals(t *testing.T) {
	db, ns := setupNoteTestDB(t)
	ctx := context.Background()
	ls := NewLabelStore(db)
	idea, _ := ls.Create(ctx, "u1", "idea", model.DefaultLabelColor)
	work, _ := ls.Create(ctx, "u1", "work", model.DefaultLabelColor)

	for i := 0; i < 5; i++ {
		n, _ := ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "plain"})
		_ = n
	}
	var tagged []string
	for i := 0; i < 3; i++ {
		n, _ := ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "tagged"})
		ns.AttachLabels(ctx, n.ID, "u1", []string{idea.ID})
		tagged = append(tagged, n.ID)
	}
	both, _ := ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "both"})
	ns.AttachLabels(ctx, both.ID, "u1", []string{idea.ID, work.ID})

	notes, total, err := ns.List(ctx, "u1", query.Facets{LabelIDs: []string{idea.ID}, IncludeDrafts: true, Limit: 2}.Normalize())
	if err != nil {
		t.Fatal(err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if len(notes) != 2 {
		t.Errorf("page = %d notes, want 2", len(notes))
	}

	_, total, _ = ns.List(ctx, "u1", query.Facets{LabelIDs: []string{work.ID, idea.ID}, IncludeDrafts: true}.Normalize())
	if total != 4 {
		t.Errorf("any-match total = %d, want 4", total)
	}

	notes, _, _ = ns.List(ctx, "u1", query.Facets{LabelIDs: []string{work.ID}, IncludeDrafts: true}.Normalize())
	if len(notes) != 1 || len(notes[0].Labels) != 2 {
		t.Errorf("work notes = %+v, want 'both' with its two labels", notes)
	}
}

func TestNoteListDateBucket(t *testing.T) {
	_, ns := setupNoteTestDB(t)
	ctx := context.Background()
	now := time.Now()

	ns.now = func() time.Time { return now.AddDate(0, 0, -10) }
	ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "old"})
	ns.now = func() time.Time { return now.AddDate(0, 0, -2) }
	ns.Create(ctx, &model.Note{AuthorID: "u1", Title: "recent"})
	ns.now = func() time.Time { return now }

	titles, _ := listTitles(t, ns, "u1", query.Facets{Date: query.DateWeek, IncludeDrafts: true})
	if !equalStrings(titles, []string{"recent"}) {
		t.Errorf("week = %q, want [recent]", titles)
	}
	_, total := listTitles(t, ns, "u1", query.Facets{Date: query.DateMonth, IncludeDrafts: true})
	if total != 2 {
		t.Errorf("month total = %d, want 2", total)
	}
}

func TestNoteListPagination(t *testing.T) {
	_, ns := setupNoteTestDB(t)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		ns.now = func() time.Time { return at }
		ns.Create(ctx, &model.Note{AuthorID: "u1", Title: string(rune('a' + i))})
	}
	ns.now = time.Now

	titles, total := listTitles(t, ns, "u1", query.Facets{Page: 2, Limit: 2, IncludeDrafts: true, Sort: query.SortCreatedAsc})
	if total != 5 || !equalStrings(titles, []string{"c", "d"}) {
		t.Errorf("page 2 = %q (total %d)", titles, total)
	}
	titles, _ = listTitles(t, ns, "u1", query.Facets{Page: 4, Limit: 2, IncludeDrafts: true})
	if len(titles) != 0 {
		t.Errorf("past last page = %q, want empty", titles)
	}
}
