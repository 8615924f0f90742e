package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-venues-api/internal/domain"
)

func newJWTer(ttl time.Duration) *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "wedding-venues", TTL: ttl}
}

func TestIssueParseRoundTrip(t *testing.T) {
	j := newJWTer(time.Hour)
	u := &domain.User{
		ID: "u-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		IsAdmin: true, IsVerified: true, IsSubscribed: true,
		CustomerID: "cus_1", CustomerEmail: "billing@example.com",
	}
	tok, err := j.Issue(u)
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.UID)
	assert.Equal(t, "Ada", c.FirstName)
	assert.Equal(t, "Lovelace", c.LastName)
	assert.Equal(t, "ada@example.com", c.Email)
	assert.True(t, c.IsAdmin)
	assert.True(t, c.IsVerified)
	assert.True(t, c.IsSubscribed)
	assert.Equal(t, "cus_1", c.CustomerID)
	assert.Equal(t, "billing@example.com", c.CustomerEmail)
	require.NotNil(t, c.ExpiresAt)
}

func TestNonExpiringToken(t *testing.T) {
	j := newJWTer(0)
	tok, err := j.Issue(&domain.User{ID: "u-1"})
	require.NoError(t, err)
	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Nil(t, c.ExpiresAt)
}

func TestParseRejects(t *testing.T) {
	j := newJWTer(time.Hour)
	tok, err := j.Issue(&domain.User{ID: "u-1"})
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("other"), Issuer: "wedding-venues", TTL: time.Hour}
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = j.Parse("not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	c := Claims{UID: "u-1", RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "wedding-venues",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
	}}
	tok, err = jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(j.Secret)
	require.NoError(t, err)
	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestParseRejectsOtherAlg(t *testing.T) {
	j := newJWTer(time.Hour)
	c := Claims{UID: "u-1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "wedding-venues"}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString(j.Secret)
	require.NoError(t, err)
	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestIssueEmptyUser(t *testing.T) {
	_, err := newJWTer(time.Hour).Issue(&domain.User{})
	assert.Error(t, err)
}
