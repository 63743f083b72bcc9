// Package vault hashes and verifies contributor passwords.
package vault

import (
	"golang.org/x/crypto/bcrypt"
)

// Hash returns a bcrypt digest of password with an embedded random salt.
func Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches the bcrypt digest.
func Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
