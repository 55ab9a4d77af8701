// Package notecrypt encrypts note content on the client before it is sent to
// the server. Ciphers get their key from an injected KeyProvider.
package notecrypt

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// KeySize is the length of a client key in bytes.
const KeySize = 32

// KeyProvider supplies the client key. A nil key with a nil error means no key
// is available and ciphers pass text through unchanged.
type KeyProvider interface {
	Key() ([]byte, error)
}

// StaticKey is a fixed key, mostly useful in tests.
type StaticKey []byte

func (k StaticKey) Key() ([]byte, error) {
	if len(k) == 0 {
		return nil, nil
	}
	return []byte(k), nil
}

// GenerateKey returns a new random key, hex encoded.
func GenerateKey() (string, error) {
	b := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ParseKey decodes a hex key.
func ParseKey(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}
	if len(b) != KeySize {
		return nil, fmt.Errorf("parse key: got %d bytes, want %d", len(b), KeySize)
	}
	return b, nil
}

// FileKeyStore keeps one hex-encoded key in a file. The key is created the first
// time it is asked for and removed by Clear.
type FileKeyStore struct {
	path string

	mu  sync.Mutex
	key []byte
}

func NewFileKeyStore(path string) *FileKeyStore {
	return &FileKeyStore{path: path}
}

func (s *FileKeyStore) Path() string {
	return s.path
}

func (s *FileKeyStore) Key() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		key, err := ParseKey(string(data))
		if err != nil {
			return nil, fmt.Errorf("read key %s: %w", s.path, err)
		}
		s.key = key
		return key, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read key: %w", err)
	}

	encoded, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(encoded+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write key: %w", err)
	}
	s.key, _ = hex.DecodeString(encoded)
	return s.key, nil
}

// Clear forgets the key and deletes the file. Clearing a missing key is not an error.
func (s *FileKeyStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.key = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove key: %w", err)
	}
	return nil
}
