// Package tokens implements the password-reset token scheme: a random token
// is mailed to the user while only its SHA-256 digest is stored.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// Generate returns a 40-character hex token from 20 bytes of crypto/rand.
func Generate() (string, error) {
	buf := make([]byte, 20)

	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}

// Hash returns the hex SHA-256 digest stored in place of the raw token.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
