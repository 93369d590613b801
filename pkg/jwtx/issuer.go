package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer mints signed, time-bounded tokens from a user identity. It never
// persists anything; the session store owns refresh-token state.
type Issuer struct {
	Keys Keys
}

// IssueAccess signs a short-lived access token carrying the identity snapshot.
func (i *Issuer) IssueAccess(id Identity) (string, error) {
	ttl, err := i.Keys.ttlFor(KindAccess)
	if err != nil {
		return "", err
	}
	return i.sign(newAccessClaims(id, ttl, timeNow().UTC()), KindAccess)
}

// IssueRefresh signs a long-lived refresh token carrying the subject only.
func (i *Issuer) IssueRefresh(id Identity) (string, error) {
	ttl, err := i.Keys.ttlFor(KindRefresh)
	if err != nil {
		return "", err
	}
	return i.sign(newRefreshClaims(id, ttl, timeNow().UTC()), KindRefresh)
}

// IssuePair mints both halves of a session. The two tokens are always created
// together; neither is ever re-issued on its own.
func (i *Issuer) IssuePair(id Identity) (access, refresh string, err error) {
	access, err = i.IssueAccess(id)
	if err != nil {
		return "", "", err
	}
	refresh, err = i.IssueRefresh(id)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (i *Issuer) sign(claims Claims, kind Kind) (string, error) {
	secret, err := i.Keys.secretFor(kind)
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}
