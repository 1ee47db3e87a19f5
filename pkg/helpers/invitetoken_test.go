package helpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteCodecRoundtrip(t *testing.T) {
	codec := NewInviteCodec("test-secret", time.Hour)

	token, exp, err := codec.Issue("new@member.dev", "alpha-squad", 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := codec.Redeem(token)
	require.NoError(t, err)
	assert.Equal(t, "new@member.dev", claims.Email)
	assert.Equal(t, "alpha-squad", claims.Team)
}

func TestInviteCodecCustomTTL(t *testing.T) {
	codec := NewInviteCodec("test-secret", time.Hour)

	_, exp, err := codec.Issue("new@member.dev", "alpha-squad", 10*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), exp, 5*time.Second)
}

func TestInviteCodecExpired(t *testing.T) {
	codec := NewInviteCodec("test-secret", time.Hour)

	token, _, err := codec.Issue("new@member.dev", "alpha-squad", -time.Minute)
	// A negative ttl falls back to the default, so build the stale token
	// by hand with the codec's signing scheme.
	require.NoError(t, err)

	stale := jwt.NewWithClaims(jwt.SigningMethodHS256, &InviteClaims{
		Email: "new@member.dev",
		Team:  "alpha-squad",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := stale.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = codec.Redeem(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// The fresh token from above still redeems.
	_, err = codec.Redeem(token)
	assert.NoError(t, err)
}

func TestInviteCodecWrongSecret(t *testing.T) {
	token, _, err := NewInviteCodec("secret-a", time.Hour).Issue("new@member.dev", "alpha-squad", 0)
	require.NoError(t, err)

	_, err = NewInviteCodec("secret-b", time.Hour).Redeem(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestInviteCodecTampered(t *testing.T) {
	codec := NewInviteCodec("test-secret", time.Hour)
	token, _, err := codec.Issue("new@member.dev", "alpha-squad", 0)
	require.NoError(t, err)

	_, err = codec.Redeem(token[:len(token)-2] + "xx")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestInviteCodecRejectsMissingClaims(t *testing.T) {
	codec := NewInviteCodec("test-secret", time.Hour)

	noEmail := jwt.NewWithClaims(jwt.SigningMethodHS256, &InviteClaims{
		Team: "alpha-squad",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := noEmail.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = codec.Redeem(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestInviteCodecRejectsUnexpectedAlgorithm(t *testing.T) {
	codec := NewInviteCodec("test-secret", time.Hour)

	// alg=none must never pass.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &InviteClaims{
		Email: "new@member.dev",
		Team:  "alpha-squad",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Redeem(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
