package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/jotter/internal/model"
)

const DefaultAutosaveDelay = 2 * time.Second

type saveFunc func(ctx context.Context, in AutosaveInput) (*model.Note, error)

// Autosaver debounces edits into autosave calls. Edits inside one delay
// window collapse into a single save of the latest snapshot. The id returned
// by the first save is reused so later saves update the same draft.
type Autosaver struct {
	mu      sync.Mutex
	saveMu  sync.Mutex
	save    saveFunc
	delay   time.Duration
	encrypt bool
	timer   *time.Timer
	pending *AutosaveInput
	id      string
	last    *model.Note
	logger  *slog.Logger
}

// NewAutosaver returns an Autosaver for a new draft. Call SetID to continue
// an existing note instead.
func NewAutosaver(c *Client, encrypt bool, logger *slog.Logger) *Autosaver {
	return &Autosaver{
		save:    c.Autosave,
		delay:   DefaultAutosaveDelay,
		encrypt: encrypt,
		logger:  logger.With("component", "autosave"),
	}
}

func (a *Autosaver) SetDelay(d time.Duration) {
	a.mu.Lock()
	a.delay = d
	a.mu.Unlock()
}

func (a *Autosaver) SetID(id string) {
	a.mu.Lock()
	a.id = id
	a.mu.Unlock()
}

func (a *Autosaver) ID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.id
}

// Last returns the note as of the most recent successful save.
func (a *Autosaver) Last() *model.Note {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Edit records the latest snapshot and restarts the delay window.
func (a *Autosaver) Edit(title, content string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = &AutosaveInput{Title: title, Content: content, Encrypt: a.encrypt}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *Autosaver) fire() {
	// Errors are already logged by Flush
	_ = a.Flush(context.Background())
}

// Flush saves the pending snapshot now, if there is one.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	in := a.pending
	a.pending = nil
	if in != nil {
		in.ID = a.id
	}
	a.mu.Unlock()

	if in == nil {
		return nil
	}

	note, err := a.save(ctx, *in)
	if err != nil {
		a.logger.Warn("autosave failed", "note_id", in.ID, "error", err)
		return err
	}

	a.mu.Lock()
	if a.id == "" {
		a.id = note.ID
	}
	a.last = note
	a.mu.Unlock()

	a.logger.Debug("autosaved", "note_id", note.ID)
	return nil
}

// Stop cancels any pending save without sending it.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
}
