package apikey

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	// TokenPrefix marks raw tokens issued by this package.
	TokenPrefix = "ao-"

	// TokenBytes is the amount of randomness in a raw token.
	TokenBytes = 32

	// MinSecretSize and MaxSecretSize bound the hashing secret.
	MinSecretSize = 16
	MaxSecretSize = blake2b.Size
)

// GenerateToken returns a new raw token.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return TokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateSecret returns a random hashing secret of MaxSecretSize bytes.
func GenerateSecret() ([]byte, error) {
	buf := make([]byte, MaxSecretSize)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Join(ErrTokenGeneration, err)
	}
	return buf, nil
}

// DecodeSecret decodes a standard or URL base64 secret, as printed by GenerateSecret's callers.
func DecodeSecret(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: not base64", ErrInvalidSecret)
}

// Hasher derives the storage digest of raw tokens.
type Hasher struct {
	secret []byte
}

// NewHasher creates a keyed BLAKE2b-256 hasher.
func NewHasher(secret []byte) (*Hasher, error) {
	if len(secret) < MinSecretSize || len(secret) > MaxSecretSize {
		return nil, fmt.Errorf("%w: want %d..%d bytes, got %d",
			ErrInvalidSecret, MinSecretSize, MaxSecretSize, len(secret))
	}
	return &Hasher{secret: append([]byte(nil), secret...)}, nil
}

// Hash returns the hex digest of token. A nil Hasher uses unkeyed BLAKE2b-256.
func (h *Hasher) Hash(token string) string {
	var (
		d   hash.Hash
		err error
	)
	if h == nil {
		d, err = blake2b.New256(nil)
	} else {
		d, err = blake2b.New256(h.secret)
	}
	if err != nil {
		// Key length is validated by NewHasher.
		panic(err)
	}
	d.Write([]byte(token))
	return hex.EncodeToString(d.Sum(nil))
}

// Hint returns a short, non-secret prefix of token suitable for display.
func Hint(token string) string {
	const n = len(TokenPrefix) + 4
	if len(token) <= n {
		return token
	}
	return token[:n] + "..."
}
