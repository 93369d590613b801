// Package jwtx issues and verifies the signed bearer tokens used by the
// accounts service. Tokens come in two kinds, access and refresh, each signed
// with its own HS256 secret and its own lifetime. The secrets are disjoint on
// purpose: a token minted for one kind can never verify as the other.
package jwtx

import (
	"errors"
	"time"
)

// Kind tags which secret and lifetime a token is bound to. Verification is
// always kind-tagged; callers state what they expect, never infer it.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Default token lifetimes, overridable via configuration.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	// ErrMalformed reports a token that cannot be parsed or whose signature
	// does not verify under the expected kind's secret. A well-formed token
	// signed for the other kind lands here too.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrExpired reports a token with a valid signature whose expiry has
	// passed.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrUnknownKind reports a Kind value this package does not know.
	ErrUnknownKind = errors.New("jwtx: unknown token kind")
)

// timeNow is swapped out in tests to pin the verification clock.
var timeNow = time.Now

// Keys holds the per-kind signing material. Both secrets are externally
// supplied; the zero value is unusable.
type Keys struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
}

func (k Keys) secretFor(kind Kind) ([]byte, error) {
	switch kind {
	case KindAccess:
		return k.AccessSecret, nil
	case KindRefresh:
		return k.RefreshSecret, nil
	default:
		return nil, ErrUnknownKind
	}
}

func (k Keys) ttlFor(kind Kind) (time.Duration, error) {
	switch kind {
	case KindAccess:
		if k.AccessTTL > 0 {
			return k.AccessTTL, nil
		}
		return DefaultAccessTTL, nil
	case KindRefresh:
		if k.RefreshTTL > 0 {
			return k.RefreshTTL, nil
		}
		return DefaultRefreshTTL, nil
	default:
		return 0, ErrUnknownKind
	}
}
