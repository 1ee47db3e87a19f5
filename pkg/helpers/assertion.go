package helpers

import (
	"context"
	"crypto/rsa"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification outcomes. Expired is kept distinct from invalid so
// callers can tell a stale credential from a forged one.
var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// KeySource resolves the issuer's public key for a key id. Implementations
// may fetch remotely but must bound the call with the context.
type KeySource interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Identity is what a verified assertion proves: a stable subject and the
// display-name hint the provider attached to it.
type Identity struct {
	Subject string
	Alias   string
}

type assertionClaims struct {
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

// AssertionVerifier validates externally issued identity assertions:
// RS256 signature against the issuer's published keys, issuer, audience
// and expiry. Verification is local apart from (cached) key retrieval.
type AssertionVerifier struct {
	issuer   string
	audience string
	keys     KeySource
}

func NewAssertionVerifier(issuer, audience string, keys KeySource) *AssertionVerifier {
	return &AssertionVerifier{issuer: issuer, audience: audience, keys: keys}
}

// Verify checks the raw assertion and extracts the identity it asserts.
func (v *AssertionVerifier) Verify(ctx context.Context, raw string) (Identity, error) {
	claims := &assertionClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	if !tkn.Valid || claims.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{Subject: claims.Subject, Alias: claims.Nickname}, nil
}
