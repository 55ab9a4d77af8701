package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/jotter/internal/database"
	"github.com/dukerupert/jotter/internal/model"
	"github.com/dukerupert/jotter/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	m.deleted = append(m.deleted, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupManager(t *testing.T) (*Manager, *mockS3Client, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(Config{
		S3:            S3Config{Bucket: "test", Region: "auto"},
		Passphrase:    "backup passphrase",
		RetentionDays: 7,
	}, db, store.NewBackupStore(db), nil, discardLogger())
	mock := newMockS3()
	m.client = mock
	return m, mock, db
}

func TestManagerDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"nothing", Config{}},
		{"no passphrase", Config{S3: S3Config{Bucket: "b"}}},
		{"no bucket", Config{Passphrase: "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.cfg, nil, nil, nil, discardLogger())
			if m.Enabled() {
				t.Error("expected disabled")
			}
			if m.Status().State != StateDisabled {
				t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
			}
			if _, err := m.Run(context.Background()); !errors.Is(err, ErrDisabled) {
				t.Errorf("Run err = %v, want ErrDisabled", err)
			}
			if err := m.Restore(context.Background(), "k", filepath.Join(t.TempDir(), "x.db")); !errors.Is(err, ErrDisabled) {
				t.Errorf("Restore err = %v, want ErrDisabled", err)
			}
		})
	}

	m := NewManager(Config{S3: S3Config{Bucket: "b"}, Passphrase: "p"}, nil, nil, nil, discardLogger())
	if !m.Enabled() || m.Status().State != StateIdle {
		t.Errorf("configured manager should be idle, got %q", m.Status().State)
	}
}

func TestRunAndRestore(t *testing.T) {
	m, mock, db := setupManager(t)
	ctx := context.Background()

	users := store.NewUserStore(db)
	if err := users.Upsert(ctx, "u1", "Alice", ""); err != nil {
		t.Fatal(err)
	}
	notes := store.NewNoteStore(db)
	if _, err := notes.Create(ctx, &model.Note{AuthorID: "u1", Title: "Keep me", Content: "body"}); err != nil {
		t.Fatal(err)
	}

	var states []State
	m.callback = func(s Status) { states = append(states, s.State) }

	record, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if record.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", record.Status)
	}
	sealed, ok := mock.objects[record.ObjectKey]
	if !ok {
		t.Fatalf("object %q not uploaded", record.ObjectKey)
	}
	if int64(len(sealed)) != record.SizeBytes {
		t.Errorf("size = %d, want %d", record.SizeBytes, len(sealed))
	}
	if bytes.Contains(sealed, []byte("Keep me")) {
		t.Error("uploaded object contains plaintext")
	}
	if len(states) != 2 || states[0] != StateRunning || states[1] != StateIdle {
		t.Errorf("states = %v", states)
	}

	dst := filepath.Join(t.TempDir(), "restored.db")
	if err := m.Restore(ctx, record.ObjectKey, dst); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored, err := sql.Open("sqlite", dst)
	if err != nil {
		t.Fatal(err)
	}
	defer restored.Close()
	var title string
	if err := restored.QueryRow(`SELECT title FROM notes WHERE author_id = 'u1'`).Scan(&title); err != nil {
		t.Fatalf("query restored db: %v", err)
	}
	if title != "Keep me" {
		t.Errorf("restored title = %q", title)
	}

	// Existing files are never overwritten
	if err := m.Restore(ctx, record.ObjectKey, dst); err == nil {
		t.Error("expected error restoring over an existing file")
	}
}

func TestRestoreWrongPassphrase(t *testing.T) {
	m, _, _ := setupManager(t)
	ctx := context.Background()

	record, err := m.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}

	m.cfg.Passphrase = "different"
	dst := filepath.Join(t.TempDir(), "restored.db")
	if err := m.Restore(ctx, record.ObjectKey, dst); !errors.Is(err, ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("restore target should not exist after a failed restore")
	}
}

func TestRunUploadFailure(t *testing.T) {
	m, mock, _ := setupManager(t)
	ctx := context.Background()
	mock.putErr = errors.New("bucket unreachable")

	if _, err := m.Run(ctx); err == nil {
		t.Fatal("expected error")
	}
	if m.Status().State != StateError {
		t.Errorf("state = %q, want %q", m.Status().State, StateError)
	}

	list, err := m.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Status != model.BackupStatusFailed {
		t.Fatalf("records = %+v", list)
	}
	if list[0].ErrorMessage == "" {
		t.Error("expected error message on failed record")
	}
}

func TestCleanup(t *testing.T) {
	m, mock, _ := setupManager(t)
	ctx := context.Background()

	start := time.Now()
	m.now = func() time.Time { return start.AddDate(0, 0, -30) }
	old, err := m.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// The store stamps started_at itself, so age the record directly.
	if _, err := m.db.ExecContext(ctx, `UPDATE backups SET started_at = ? WHERE id = ?`, start.AddDate(0, 0, -30).UTC(), old.ID); err != nil {
		t.Fatal(err)
	}

	m.now = func() time.Time { return start }
	recent, err := m.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, ok := mock.objects[old.ObjectKey]; ok {
		t.Error("old object should be deleted")
	}
	if _, ok := mock.objects[recent.ObjectKey]; !ok {
		t.Error("recent object should remain")
	}
	list, err := m.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != recent.ID {
		t.Errorf("records after cleanup = %+v", list)
	}
}

func TestManagerStopSafety(t *testing.T) {
	m, _, _ := setupManager(t)
	m.cfg.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	cancel()
	m.Stop()

	// Double stop should not panic
	m.Stop()
}

func TestManagerNoIntervalNoStart(t *testing.T) {
	m, _, _ := setupManager(t)
	m.Start(context.Background())
	if m.done != nil {
		t.Error("schedule should not start without an interval")
	}
	m.Stop()
}
