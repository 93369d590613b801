package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks a token's signature and expiry against the secret for the
// expected kind and extracts its claims. Pure computation, no side effects.
type Verifier struct {
	Keys Keys
}

// Verify validates token as the given kind. The error is always one of the
// package sentinels (wrapped): ErrExpired when only the clock is at fault,
// ErrMalformed for anything else, so callers can decide between prompting a
// re-login and failing hard.
func (v *Verifier) Verify(token string, kind Kind) (Claims, error) {
	secret, err := v.Keys.secretFor(kind)
	if err != nil {
		return Claims{}, err
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return timeNow().UTC() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Claims{}, ErrMalformed
	}

	return claims, nil
}
