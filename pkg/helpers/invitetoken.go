package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// InviteClaims is the self-contained payload of an invitation token. The
// token carries everything redemption needs, so no server-side state is
// kept between issue and redeem.
type InviteClaims struct {
	Email string `json:"email"`
	Team  string `json:"team"`
	jwt.RegisteredClaims
}

// InviteCodec issues and verifies signed invitation tokens. It signs with
// its own HS256 secret, a separate trust root from the identity provider's
// keys, so the two can rotate independently.
type InviteCodec struct {
	secret     []byte
	defaultTTL time.Duration
}

func NewInviteCodec(secret string, defaultTTL time.Duration) *InviteCodec {
	return &InviteCodec{secret: []byte(secret), defaultTTL: defaultTTL}
}

// Issue produces a token binding email to teamSlug until now+ttl.
// A non-positive ttl falls back to the codec default.
func (c *InviteCodec) Issue(email, teamSlug string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := &InviteClaims{
		Email: email,
		Team:  teamSlug,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(c.secret)
	return s, exp, err
}

// Redeem verifies the token signature and expiry and returns its claims.
// Verification is purely cryptographic; callers re-check that the
// referenced team still exists.
func (c *InviteCodec) Redeem(token string) (*InviteClaims, error) {
	claims := &InviteClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tkn.Valid || claims.Email == "" || claims.Team == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
