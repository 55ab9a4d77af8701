package notecrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Cipher turns note text into an opaque string and back. Decrypt never fails:
// when the input cannot be decrypted it is returned unchanged.
type Cipher interface {
	Encrypt(text string) (string, error)
	Decrypt(text string) string
}

// New returns the named cipher: "aead" (default) or "xor".
func New(name string, keys KeyProvider) (Cipher, error) {
	switch strings.ToLower(name) {
	case "", "aead", "aes-gcm":
		return NewAEAD(keys), nil
	case "xor":
		return NewXOR(keys), nil
	default:
		return nil, fmt.Errorf("unknown cipher %q", name)
	}
}

// AEAD encrypts with AES-256-GCM and a random nonce per message.
// Output is base64(nonce || ciphertext).
type AEAD struct {
	keys KeyProvider
}

func NewAEAD(keys KeyProvider) *AEAD {
	return &AEAD{keys: keys}
}

func (a *AEAD) gcm() (cipher.AEAD, error) {
	key, err := a.keys.Key()
	if err != nil || key == nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

func (a *AEAD) Encrypt(text string) (string, error) {
	if text == "" {
		return text, nil
	}
	gcm, err := a.gcm()
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	if gcm == nil {
		return text, nil
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(text), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (a *AEAD) Decrypt(text string) string {
	if text == "" {
		return text
	}
	gcm, err := a.gcm()
	if err != nil {
		slog.Debug("decrypt: key unavailable", "error", err)
		return text
	}
	if gcm == nil {
		return text
	}

	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil || len(data) < gcm.NonceSize() {
		return text
	}
	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return text
	}
	return string(plain)
}

// XOR is the legacy scheme: UTF-8 bytes XOR the repeating key, base64 encoded.
// It provides no confidentiality against anyone holding two ciphertexts and
// exists only to read notes written by older clients.
type XOR struct {
	keys KeyProvider
}

func NewXOR(keys KeyProvider) *XOR {
	return &XOR{keys: keys}
}

func (x *XOR) Encrypt(text string) (string, error) {
	if text == "" {
		return text, nil
	}
	key, err := x.keys.Key()
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	if len(key) == 0 {
		return text, nil
	}
	return base64.StdEncoding.EncodeToString(xorBytes([]byte(text), key)), nil
}

func (x *XOR) Decrypt(text string) string {
	if text == "" {
		return text
	}
	key, err := x.keys.Key()
	if err != nil || len(key) == 0 {
		return text
	}
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return text
	}
	return strings.ToValidUTF8(string(xorBytes(data, key)), "�")
}

func xorBytes(data, key []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}
