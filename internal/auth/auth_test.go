package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
)

func newTestManager(now *time.Time) *Manager {
	return NewManager("test-secret", time.Hour, 24*time.Hour).WithClock(func() time.Time { return *now })
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestManager(&now)

	token, err := m.IssueAccess("u1")
	require.NoError(t, err)

	claims, err := m.Verify(token, TokenAccess)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Empty(t, claims.Type)
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestManager(&now)

	access, err := m.IssueAccess("u1")
	require.NoError(t, err)
	refresh, err := m.IssueRefresh("u1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.Verify(access, TokenAccess)
	require.ErrorIs(t, err, ErrTokenExpired)
	_, err = m.Verify(refresh, TokenRefresh)
	require.NoError(t, err)

	now = now.Add(48 * time.Hour)
	_, err = m.Verify(refresh, TokenRefresh)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenTypeMismatch(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestManager(&now)

	access, err := m.IssueAccess("u1")
	require.NoError(t, err)
	refresh, err := m.IssueRefresh("u1")
	require.NoError(t, err)

	_, err = m.Verify(access, TokenRefresh)
	require.ErrorIs(t, err, ErrTokenTypeMismatch)
	_, err = m.Verify(refresh, TokenAccess)
	require.ErrorIs(t, err, ErrTokenTypeMismatch)
}

func TestTokenInvalid(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestManager(&now)
	other := NewManager("other-secret", time.Hour, time.Hour).WithClock(func() time.Time { return now })

	foreign, err := other.IssueAccess("u1")
	require.NoError(t, err)
	_, err = m.Verify(foreign, TokenAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.Verify("not.a.jwt", TokenAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(unsigned, TokenAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordHashing(t *testing.T) {
	m := NewManager("s", time.Hour, time.Hour)
	hash, err := m.HashPassword("Secret1!x")
	require.NoError(t, err)
	require.NotEqual(t, "Secret1!x", hash)
	require.NoError(t, m.ComparePassword(hash, "Secret1!x"))
	require.Error(t, m.ComparePassword(hash, "wrong"))
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, ok := TokenFromRequest(r)
	require.False(t, ok)

	r.Header.Set("Authorization", "Basic abc")
	_, ok = TokenFromRequest(r)
	require.False(t, ok)

	r.Header.Set("Authorization", "Bearer abc.def")
	token, ok := TokenFromRequest(r)
	require.True(t, ok)
	require.Equal(t, "abc.def", token)
}

func TestUserContext(t *testing.T) {
	ctx := WithUser(context.Background(), &models.User{ID: "u1"})
	id, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u1", id)
	u, ok := UserFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u1", u.ID)
}
