package cryptoutil

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	sessionIDBytes    = 32
	secretBytes       = 32
	tokenSeparator    = "."
	sessionIDHexChars = sessionIDBytes * 2
)

// ErrEmptySecret is returned when a signer is built from an empty key.
var ErrEmptySecret = errors.New("signing secret cannot be empty")

// Signer generates session ids and binds them to a secret with HMAC-SHA256.
// The secret is fixed for the lifetime of the signer.
type Signer struct {
	key  []byte
	rand io.Reader
}

// NewSigner constructs a Signer for the given secret.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &Signer{key: append([]byte(nil), secret...), rand: rand.Reader}, nil
}

// RandomSecret returns fresh key material. Sessions signed with it do not
// survive a restart because the secret is never persisted.
func RandomSecret() ([]byte, error) {
	b := make([]byte, secretBytes)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	return b, nil
}

// GenerateID returns a 256-bit random token, hex encoded.
func (s *Signer) GenerateID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := io.ReadFull(s.rand, b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Sign returns hex(HMAC-SHA256(secret, id)).
func (s *Signer) Sign(id string) string {
	return hex.EncodeToString(s.mac(id))
}

// Verify recomputes the signature for id and compares it in constant time.
func (s *Signer) Verify(id, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, s.mac(id))
}

// EncodeToken returns the cookie value "<id>.<signature>".
func (s *Signer) EncodeToken(id string) string {
	return id + tokenSeparator + s.Sign(id)
}

// DecodeToken splits a cookie value into id and signature.
// ok is false when either part is missing. The signature is not checked here.
func (s *Signer) DecodeToken(value string) (id, signature string, ok bool) {
	id, signature, found := strings.Cut(value, tokenSeparator)
	if !found || id == "" || signature == "" {
		return "", "", false
	}
	return id, signature, true
}

// ValidSessionID reports whether id has the shape produced by GenerateID.
func ValidSessionID(id string) bool {
	if len(id) != sessionIDHexChars {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

func (s *Signer) mac(id string) []byte {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(id))
	return m.Sum(nil)
}
