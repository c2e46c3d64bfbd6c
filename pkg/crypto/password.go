// Package crypto wraps bcrypt hashing for account passwords.
package crypto

import "golang.org/x/crypto/bcrypt"

const hashCost = bcrypt.DefaultCost

// HashPassword derives a bcrypt hash from a plaintext password.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), hashCost)
}

// ComparePassword reports a non-nil error when the plaintext does not match
// the stored hash.
func ComparePassword(hash []byte, plain string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain))
}
