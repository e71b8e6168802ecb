package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

var ErrEmptyToken = errors.New("token and hash cannot be empty")

const (
	DefaultTokenLength = 32 // 256 bits
)

// TokenPair is an opaque bearer token and the digest persisted for it.
type TokenPair struct {
	Token string // value returned to client
	Hash  string // value in storage
}

// GenerateHashedToken creates a random URL-safe token of byteLength random
// bytes (DefaultTokenLength when zero or negative) and its storage hash.
func GenerateHashedToken(byteLength int) (*TokenPair, error) {
	if byteLength <= 0 {
		byteLength = DefaultTokenLength
	}

	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}

	token := base64.RawURLEncoding.EncodeToString(raw)
	return &TokenPair{Token: token, Hash: HashToken(token)}, nil
}

// HashToken is the lookup key for a token. Tokens carry enough entropy that
// an unsalted SHA-256 is sufficient.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func VerifyToken(token, storedHash string) (bool, error) {
	if token == "" || storedHash == "" {
		return false, ErrEmptyToken
	}
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(storedHash)) == 1, nil
}
