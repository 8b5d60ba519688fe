package helpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)

	access, aexp, err := m.GenerateAccessToken("u1", "s1", "developer")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), aexp, 2*time.Second)

	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "developer", claims.Role)

	refresh, _, err := m.GenerateRefreshToken("u1", "s1")
	require.NoError(t, err)
	rc, err := m.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "s1", rc.SessionID)

	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err, "access token must not validate with the refresh secret")
	assert.Same(t, m, DefaultJWT())
}

func TestJWTManagerExpired(t *testing.T) {
	m := NewJWTManager("access", "refresh", -time.Minute, time.Hour)
	tok, _, err := m.GenerateAccessToken("u1", "s1", "user")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(tok)
	assert.Error(t, err)
}

func TestJWTManagerAudienceSeparation(t *testing.T) {
	// Same secret for both kinds: only the audience tells them apart.
	m := NewJWTManager("shared", "shared", time.Minute, time.Hour)

	access, _, err := m.GenerateAccessToken("u1", "s1", "user")
	require.NoError(t, err)
	refresh, _, err := m.GenerateRefreshToken("u1", "s1")
	require.NoError(t, err)

	_, err = m.ParseRefreshToken(access)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
	_, err = m.ParseAccessToken(refresh)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)

	c, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "otomasyon-magazasi", c.Issuer)
	assert.Equal(t, "u1", c.Subject)
}

func TestJWTRejectsOtherAlgorithms(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)
	claims := &Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "otomasyon-magazasi",
		Audience:  jwt.ClaimStrings{"access"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access"))
	require.NoError(t, err)

	_, err = m.ParseAccessToken(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}
