package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"github.com/dukerupert/jotter/internal/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, userID string) *Client {
	return &Client{
		hub:    hub,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())

	c1 := mockClient(hub, "alice")
	c2 := mockClient(hub, "alice")
	c3 := mockClient(hub, "bob")

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	if got := hub.ClientCount(); got != 3 {
		t.Fatalf("expected 3 clients, got %d", got)
	}

	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients after unregister, got %d", got)
	}

	hub.Unregister(c2)
	hub.Unregister(c3)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
	if len(hub.clients) != 0 {
		t.Errorf("expected empty user index, got %d users", len(hub.clients))
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(testLogger())
	c := mockClient(hub, "alice")
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestPublishScopedToUser(t *testing.T) {
	hub := NewHub(testLogger())

	alice1 := mockClient(hub, "alice")
	alice2 := mockClient(hub, "alice")
	bob := mockClient(hub, "bob")
	hub.Register(alice1)
	hub.Register(alice2)
	hub.Register(bob)

	hub.Publish("alice", NewMessage("note", "created", "n-1"))

	for _, c := range []*Client{alice1, alice2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "note" || got.Action != "created" || got.ID != "n-1" {
				t.Errorf("got %+v", got)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}

	select {
	case data := <-bob.send:
		t.Errorf("bob received %s", data)
	default:
	}
}

func TestPublishEmptyHub(t *testing.T) {
	hub := NewHub(testLogger())
	// Should not panic
	hub.Publish("nobody", NewMessage("label", "deleted", "l-1"))
}

func TestPublishFullBuffer(t *testing.T) {
	hub := NewHub(testLogger())

	c := mockClient(hub, "alice")
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Publish("alice", NewMessage("note", "updated", "fill"))
	}

	// This should drop the message, not panic or block
	hub.Publish("alice", NewMessage("note", "updated", "dropped"))

	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, "alice")
			hub.Register(c)
			hub.Publish("alice", NewMessage("note", "updated", "x"))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestHandleWebSocketRequiresUser(t *testing.T) {
	hub := NewHub(testLogger())
	rec := httptest.NewRecorder()
	HandleWebSocket(hub, nil, testLogger())(rec, httptest.NewRequest("GET", "/ws", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandleWebSocketDelivers(t *testing.T) {
	hub := NewHub(testLogger())
	inner := HandleWebSocket(hub, nil, testLogger())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithAuth(r.Context(), auth.AuthContext{UserID: "alice"})
		inner(w, r.WithContext(ctx))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish("alice", NewMessage("category", "created", "c-1"))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "category" || got.ID != "c-1" {
		t.Errorf("got %+v", got)
	}
}
