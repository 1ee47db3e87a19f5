package helpers

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://issuer.test/"
	testAudience = "teams-api"
)

func newTestVerifier(t *testing.T) (*AssertionVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewAssertionVerifier(testIssuer, testAudience, StaticKeySource{"test-kid": &key.PublicKey})
	return v, key
}

func signAssertion(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.Claims) string {
	t.Helper()
	tkn := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tkn.Header["kid"] = kid
	signed, err := tkn.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims() *assertionClaims {
	return &assertionClaims{
		Nickname: "luis",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth0|abc123",
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifyValidAssertion(t *testing.T) {
	v, key := newTestVerifier(t)

	id, err := v.Verify(context.Background(), signAssertion(t, key, "test-kid", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "auth0|abc123", id.Subject)
	assert.Equal(t, "luis", id.Alias)
}

func TestVerifyExpiredAssertion(t *testing.T) {
	v, key := newTestVerifier(t)

	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	_, err := v.Verify(context.Background(), signAssertion(t, key, "test-kid", claims))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongIssuer(t *testing.T) {
	v, key := newTestVerifier(t)

	claims := validClaims()
	claims.Issuer = "https://somebody-else.test/"

	_, err := v.Verify(context.Background(), signAssertion(t, key, "test-kid", claims))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyWrongAudience(t *testing.T) {
	v, key := newTestVerifier(t)

	claims := validClaims()
	claims.Audience = jwt.ClaimStrings{"another-api"}

	_, err := v.Verify(context.Background(), signAssertion(t, key, "test-kid", claims))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyMissingSubject(t *testing.T) {
	v, key := newTestVerifier(t)

	claims := validClaims()
	claims.Subject = ""

	_, err := v.Verify(context.Background(), signAssertion(t, key, "test-kid", claims))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyMissingExpiry(t *testing.T) {
	v, key := newTestVerifier(t)

	claims := validClaims()
	claims.ExpiresAt = nil

	_, err := v.Verify(context.Background(), signAssertion(t, key, "test-kid", claims))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyUnknownKeyID(t *testing.T) {
	v, key := newTestVerifier(t)

	_, err := v.Verify(context.Background(), signAssertion(t, key, "rotated-away", validClaims()))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyWrongKey(t *testing.T) {
	v, _ := newTestVerifier(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signAssertion(t, other, "test-kid", validClaims()))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsHMACAssertion(t *testing.T) {
	v, _ := newTestVerifier(t)

	// An attacker must not be able to downgrade to a symmetric scheme.
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	tkn.Header["kid"] = "test-kid"
	signed, err := tkn.SignedString([]byte("guessable"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyGarbage(t *testing.T) {
	v, _ := newTestVerifier(t)

	_, err := v.Verify(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
