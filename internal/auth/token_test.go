package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
)

func TestSessionRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, time.Minute)

	profile := &domain.Profile{
		UID:     "uid-1",
		Name:    "Pat",
		Role:    domain.RoleCrew,
		Faculty: "Engineering",
	}

	token, err := m.IssueSession(profile)
	require.NoError(t, err)

	id, err := m.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id.UID)
	assert.Equal(t, "Pat", id.Name)
	assert.Equal(t, domain.RoleCrew, id.Role)
	assert.Equal(t, "Engineering", id.Faculty)
}

func TestParseSessionRejectsBadTokens(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, time.Minute)
	other := NewTokenManager("other-secret", time.Hour, time.Minute)

	token, err := m.IssueSession(&domain.Profile{UID: "uid-1", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = other.ParseSession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseSession(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseSession("not a token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredSession(t *testing.T) {
	m := NewTokenManager("secret", -time.Minute, time.Minute)
	// Negative TTL falls back to the default, so force a real instance.
	m.sessionTTL = -time.Minute

	token, err := m.IssueSession(&domain.Profile{UID: "uid-1", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = m.ParseSession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, time.Minute)

	token, err := m.IssueReset("uid-9")
	require.NoError(t, err)

	uid, err := m.ParseReset(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-9", uid)
}

func TestPurposeIsEnforced(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, time.Minute)

	session, err := m.IssueSession(&domain.Profile{UID: "uid-1", Role: domain.RoleUser})
	require.NoError(t, err)
	reset, err := m.IssueReset("uid-1")
	require.NoError(t, err)

	_, err = m.ParseReset(session)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseSession(reset)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
