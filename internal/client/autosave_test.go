package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type autosaveRecorder struct {
	mu     sync.Mutex
	bodies []autosaveBody
	fail   bool
}

func (r *autosaveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

func (r *autosaveRecorder) body(i int) autosaveBody {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies[i]
}

func newAutosaveServer(t *testing.T) (*autosaveRecorder, *Client) {
	t.Helper()
	rec := &autosaveRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b autosaveBody
		json.NewDecoder(r.Body).Decode(&b)

		rec.mu.Lock()
		rec.bodies = append(rec.bodies, b)
		fail := rec.fail
		rec.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "Failed to autosave note"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Note autosaved",
			"note":    map[string]any{"id": "n1", "title": b.Title, "content": b.Content},
		})
	}))
	t.Cleanup(srv.Close)
	return rec, New(Config{BaseURL: srv.URL, Cipher: testCipher()})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAutosaverDebounce(t *testing.T) {
	rec, c := newAutosaveServer(t)
	a := NewAutosaver(c, false, discardLogger())
	a.SetDelay(30 * time.Millisecond)

	for _, content := range []string{"h", "he", "hel", "hell", "hello"} {
		a.Edit("greeting", content)
	}

	waitFor(t, func() bool { return rec.count() == 1 })
	time.Sleep(100 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Fatalf("saves = %d, want 1", n)
	}
	if got := rec.body(0).Content; got != "hello" {
		t.Errorf("saved content = %q, want last edit", got)
	}
	waitFor(t, func() bool { return a.ID() == "n1" })
}

func TestAutosaverKeepsID(t *testing.T) {
	rec, c := newAutosaveServer(t)
	a := NewAutosaver(c, false, discardLogger())
	a.SetDelay(time.Hour)
	ctx := context.Background()

	a.Edit("", "first")
	if err := a.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	a.Edit("", "second")
	if err := a.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if rec.count() != 2 {
		t.Fatalf("saves = %d, want 2", rec.count())
	}
	if rec.body(0).ID != "" {
		t.Errorf("first save id = %q, want empty", rec.body(0).ID)
	}
	if rec.body(1).ID != "n1" {
		t.Errorf("second save id = %q, want n1", rec.body(1).ID)
	}
	if last := a.Last(); last == nil || last.Content != "second" {
		t.Errorf("last = %+v", last)
	}
}

func TestAutosaverStop(t *testing.T) {
	rec, c := newAutosaveServer(t)
	a := NewAutosaver(c, false, discardLogger())
	a.SetDelay(20 * time.Millisecond)

	a.Edit("t", "never sent")
	a.Stop()
	time.Sleep(80 * time.Millisecond)

	if rec.count() != 0 {
		t.Errorf("saves = %d after Stop, want 0", rec.count())
	}
	if err := a.Flush(context.Background()); err != nil {
		t.Errorf("flush with nothing pending: %v", err)
	}
	if rec.count() != 0 {
		t.Error("flush after Stop must not send")
	}
}

func TestAutosaverSwallowsErrors(t *testing.T) {
	rec, c := newAutosaveServer(t)
	rec.fail = true
	a := NewAutosaver(c, false, discardLogger())
	a.SetDelay(10 * time.Millisecond)

	a.Edit("t", "x")
	waitFor(t, func() bool { return rec.count() == 1 })
	if a.ID() != "" {
		t.Error("a failed save must not record an id")
	}

	a.Edit("t", "y")
	if err := a.Flush(context.Background()); err == nil {
		t.Error("explicit flush should report the failure")
	}
}

func TestAutosaverEncrypts(t *testing.T) {
	rec, c := newAutosaveServer(t)
	a := NewAutosaver(c, true, discardLogger())
	a.SetDelay(time.Hour)

	a.Edit("secret", "hidden text")
	if err := a.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	b := rec.body(0)
	if b.Content != "" || !b.IsEncrypted || b.EncryptedContent == nil {
		t.Fatalf("body = %+v", b)
	}
	if testCipher().Decrypt(*b.EncryptedContent) != "hidden text" {
		t.Error("ciphertext does not decrypt to the edit")
	}
}
