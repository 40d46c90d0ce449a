package cryptoutil

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultPBKDF2Iterations is also the floor enforced by NewPBKDF2Hasher.
	DefaultPBKDF2Iterations = 10000

	passwordSaltLength = 16
	passwordKeyLength  = 64
	passwordSeparator  = ":"
)

// PBKDF2Hasher derives salted password digests with PBKDF2-HMAC-SHA512.
// Encoded form is "<saltHex>:<digestHex>".
type PBKDF2Hasher struct {
	iterations int
	rand       io.Reader
}

// NewPBKDF2Hasher constructs a hasher. Iteration counts below the default are raised to it.
func NewPBKDF2Hasher(iterations int) *PBKDF2Hasher {
	if iterations < DefaultPBKDF2Iterations {
		iterations = DefaultPBKDF2Iterations
	}
	return &PBKDF2Hasher{iterations: iterations, rand: rand.Reader}
}

// Hash generates a fresh salt and returns the encoded salt and digest.
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, passwordSaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)
	digest := h.derive(password, saltHex)
	return saltHex + passwordSeparator + hex.EncodeToString(digest), nil
}

// Verify recomputes the digest with the stored salt and compares in constant time.
// Malformed stored values never match.
func (h *PBKDF2Hasher) Verify(password, stored string) bool {
	saltHex, digestHex, ok := strings.Cut(stored, passwordSeparator)
	if !ok || saltHex == "" || strings.Contains(digestHex, passwordSeparator) {
		return false
	}
	if _, err := hex.DecodeString(saltHex); err != nil {
		return false
	}
	want, err := hex.DecodeString(digestHex)
	if err != nil || len(want) != passwordKeyLength {
		return false
	}
	return subtle.ConstantTimeCompare(h.derive(password, saltHex), want) == 1
}

// derive salts with the hex form of the salt bytes; existing user records were
// written that way.
func (h *PBKDF2Hasher) derive(password, saltHex string) []byte {
	return pbkdf2.Key([]byte(password), []byte(saltHex), h.iterations, passwordKeyLength, sha512.New)
}
