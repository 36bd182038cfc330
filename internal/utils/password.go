package utils

import "golang.org/x/crypto/bcrypt" // Password hashing

// PasswordHasher hashes and verifies account passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// BcryptHasher is the default PasswordHasher. Verification is constant time.
type BcryptHasher struct {
	Cost int // bcrypt work factor
}

// NewBcryptHasher returns a hasher using bcrypt.DefaultCost
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

// Hash hashes a password with a random salt
func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compares a stored hash with a candidate password
func (h *BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
