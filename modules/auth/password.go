package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const missingAccountPassword = "taskboard-missing-account"

// PasswordHasher provides password hashing and verification functionality.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummyHash string
}

// NewPasswordHasher creates a PasswordHasher with the given bcrypt cost.
// Out-of-range costs fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{
		cost: cost,
	}
}

// Hash generates a bcrypt hash of the given password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify checks if the provided password matches the hash.
func (h *PasswordHasher) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Reject compares password against a fixed hash of the configured cost so
// that a lookup miss spends the same bcrypt work as a wrong password.
// It always returns false.
func (h *PasswordHasher) Reject(password string) bool {
	h.dummyOnce.Do(func() {
		if hash, err := h.Hash(missingAccountPassword); err == nil {
			h.dummyHash = hash
		}
	})
	_ = bcrypt.CompareHashAndPassword([]byte(h.dummyHash), []byte(password))
	return false
}
