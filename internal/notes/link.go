package notes

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/dukerupert/jotter/internal/model"
)

const linkIDBytes = 16

var randReader io.Reader = rand.Reader

// NewLinkID returns 128 random bits, URL-safe base64 encoded.
func NewLinkID() (string, error) {
	b := make([]byte, linkIDBytes)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return "", fmt.Errorf("generate link id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ReconcileLink makes the note's public link agree with its visibility flags:
// a published note gets a link if it lacks one, anything else loses its link.
// A cleared link is never handed out again.
func ReconcileLink(n *model.Note) error {
	if !n.Published() {
		n.PublicLinkID = nil
		return nil
	}
	if n.PublicLinkID != nil && *n.PublicLinkID != "" {
		return nil
	}
	id, err := NewLinkID()
	if err != nil {
		return err
	}
	n.PublicLinkID = &id
	return nil
}
