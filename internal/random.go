package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const refreshTokenRawSize = 40

// NewRefreshToken returns an opaque random credential. The raw value is
// handed to the caller exactly once; stores only ever see its hash.
func NewRefreshToken() (string, error) {
	var raw [refreshTokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// HashToken returns the hex-encoded SHA-256 digest of an opaque token.
// Lookup keys are digests so a store dump never yields usable credentials.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
