package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when no explicit cost is
// configured. Matches the usual 10-round production setting.
const DefaultCost = 10

var (
	// ErrMismatch reports that the plaintext does not match the stored hash.
	ErrMismatch = errors.New("cryptox: password does not match")

	// ErrInvalidHash reports a stored hash that bcrypt cannot parse.
	ErrInvalidHash = errors.New("cryptox: invalid password hash")
)

// HashPassword produces a salted bcrypt digest of the plaintext. The cost is
// clamped to bcrypt's supported range; pass DefaultCost unless the service
// configuration says otherwise. Hashing is one-way, there is no decode path.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("cryptox: failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword recomputes the digest and compares it against the stored
// hash in time constant relative to the secret. A malformed stored hash
// yields ErrInvalidHash rather than a panic or a bare mismatch.
func VerifyPassword(password, encodedHash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
}
