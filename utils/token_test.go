package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute, time.Hour)
	access, refresh, err := issuer.Issue("u1", "ada@example.com", "vendor")
	require.NoError(t, err)

	claims, err := issuer.Verify(access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "vendor", claims.Role)

	_, err = issuer.Verify(refresh, TokenTypeRefresh)
	require.NoError(t, err)

	_, err = issuer.Verify(refresh, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute, time.Hour)
	now := time.Now()
	issuer.now = func() time.Time { return now }
	access, _, err := issuer.Issue("u1", "ada@example.com", "vendor")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = issuer.Verify(access, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute, time.Hour)
	other := NewTokenIssuer("other", time.Minute, time.Hour)
	access, _, err := other.Issue("u1", "ada@example.com", "vendor")
	require.NoError(t, err)

	_, err = issuer.Verify(access, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("not.a.jwt", TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// alg=none is never accepted
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", Type: TokenTypeAccess}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(unsigned, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResponses(t *testing.T) {
	ok := SuccessResponse("done", map[string]int{"n": 1})
	assert.Equal(t, true, ok["success"])
	assert.Equal(t, "done", ok["message"])

	bad := ErrorResponse("nope")
	assert.Equal(t, false, bad["success"])
	assert.Equal(t, "nope", bad["message"])

	assert.NotEqual(t, NewRequestID(), NewRequestID())
}
