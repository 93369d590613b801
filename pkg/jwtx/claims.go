package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims used across the service. Access tokens carry
// the full identity snapshot; refresh tokens carry the subject only.
type Claims struct {
	jwt.RegisteredClaims

	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// Identity is the slice of the user record that ends up inside tokens.
type Identity struct {
	ID       string
	Username string
	Email    string
	FullName string
}

func newAccessClaims(id Identity, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: id.Username,
		Email:    id.Email,
		FullName: id.FullName,
	}
}

func newRefreshClaims(id Identity, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
