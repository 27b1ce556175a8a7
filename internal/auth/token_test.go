package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	fixed := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	raw, exp, err := m.Issue(42, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(time.Hour), exp)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.True(t, exp.Equal(claims.ExpiresAt))
}

func TestParse_Expired(t *testing.T) {
	m := NewTokenManager(testSecret, time.Minute)
	issued := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	raw, _, err := m.Issue(1, "a@b.c")
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.Parse(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestParse_WrongSecret(t *testing.T) {
	raw, _, err := NewTokenManager(testSecret, time.Hour).Issue(1, "a@b.c")
	require.NoError(t, err)

	_, err = NewTokenManager("another-secret-another-secret-xx", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestParse_BadSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "not-a-number",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestIssue_Guards(t *testing.T) {
	_, _, err := NewTokenManager("", time.Hour).Issue(1, "a@b.c")
	assert.Error(t, err)

	_, _, err = NewTokenManager(testSecret, time.Hour).Issue(0, "a@b.c")
	assert.Error(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).Parse("  ")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
