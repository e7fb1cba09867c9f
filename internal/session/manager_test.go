package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	m := NewManager()
	m.now = func() time.Time { return now }

	s := m.CreateSession("u1", time.Minute)
	got, ok := m.GetSession(s.ID)
	require.True(t, ok)
	assert.Equal(t, "u1", got.UserID)

	now = now.Add(50 * time.Second)
	assert.True(t, m.Touch(s.ID, time.Minute))

	now = now.Add(50 * time.Second)
	_, ok = m.GetSession(s.ID)
	assert.True(t, ok, "touch extended the expiry")

	now = now.Add(2 * time.Minute)
	_, ok = m.GetSession(s.ID)
	assert.False(t, ok)
	assert.False(t, m.Touch(s.ID, time.Minute))
	assert.Equal(t, []string{s.ID}, m.CleanupExpiredSessions())
	assert.Zero(t, m.Count())
}

func TestSessionWithoutTimeoutNeverExpires(t *testing.T) {
	m := NewManager()
	s := m.CreateSession("u1", 0)
	assert.True(t, s.ExpiresAt.IsZero())
	assert.False(t, s.Expired(time.Now().Add(1000*time.Hour)))
	assert.Empty(t, m.CleanupExpiredSessions())

	m.DeleteSession(s.ID)
	_, ok := m.GetSession(s.ID)
	assert.False(t, ok)
}
