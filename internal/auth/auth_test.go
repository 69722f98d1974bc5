package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
		BcryptCost: 4,
	})
	require.NoError(t, err)
	return m
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(config.AuthConfig{})
	assert.Error(t, err)
}

func TestPasswordRoundTrip(t *testing.T) {
	m := newTestManager(t)

	hash, err := m.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, m.CheckPassword(hash, "s3cret"))
	assert.ErrorIs(t, m.CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, err := m.IssueToken("alice")
	require.NoError(t, err)

	login, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", login)
}

func TestParseTokenRejectsForgery(t *testing.T) {
	m := newTestManager(t)
	other := newTestManager(t)
	other.secret = []byte("different-secret")

	token, err := other.IssueToken("alice")
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
