package security

import (
	"crypto/rand"
	"encoding/hex"
)

// NewToken returns 32 random bytes hex-encoded (256 bits of entropy), used
// for verification tokens and CSRF cookies.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
