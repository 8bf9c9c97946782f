package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of a session token. 48 bytes hex-encode to a
// 96-character string, which is what the sessions.token column holds.
const tokenBytes = 48

// NewToken generates a cryptographically secure opaque session token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
