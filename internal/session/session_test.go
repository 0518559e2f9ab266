package session

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/illarion/credvault/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIters = 1000

func openVault(t *testing.T) *vault.Vault {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.vault")
	v, err := vault.Open(context.Background(), path, []byte("correct-horse"), vault.WithIterations(testIters))
	require.NoError(t, err)
	require.NoError(t, v.Set(context.Background(), "smtp_password", "hunter2"))
	return v
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLockedByDefault(t *testing.T) {
	s := New(time.Minute, nil)
	assert.False(t, s.Unlocked())

	_, err := s.Vault()
	assert.ErrorIs(t, err, ErrLocked)

	// locking an empty session is harmless
	s.Lock()
}

func TestUnlockNilLocks(t *testing.T) {
	s := New(time.Minute, nil)
	assert.NotPanics(t, func() { s.Unlock(nil) })
	assert.False(t, s.Unlocked())

	v := openVault(t)
	s.Unlock(v)
	require.True(t, s.Unlocked())

	s.Unlock(nil)
	assert.False(t, s.Unlocked())
	_, err := s.Vault()
	assert.ErrorIs(t, err, ErrLocked)
	_, err = v.Get("smtp_password")
	assert.ErrorIs(t, err, vault.ErrClosed)
}

func TestIdleTimeoutEvictsLazily(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := New(time.Hour, nil)
	s.now = clock.Now

	v := openVault(t)
	s.Unlock(v)
	t.Cleanup(s.Lock)

	clock.Advance(59 * time.Minute)
	got, err := s.Vault()
	require.NoError(t, err)
	value, err := got.Get("smtp_password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)

	// access refreshed the deadline
	clock.Advance(59 * time.Minute)
	assert.True(t, s.Unlocked())

	clock.Advance(2 * time.Minute)
	assert.False(t, s.Unlocked())
	_, err = s.Vault()
	assert.ErrorIs(t, err, ErrLocked)

	// the evicted vault was closed
	_, err = v.Get("smtp_password")
	assert.ErrorIs(t, err, vault.ErrClosed)
}

func TestIdleTimeoutEvictsProactively(t *testing.T) {
	s := New(20*time.Millisecond, nil)
	v := openVault(t)
	s.Unlock(v)

	require.Eventually(t, func() bool {
		_, err := v.Get("smtp_password")
		return err != nil
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, s.Unlocked())
}

func TestExplicitLock(t *testing.T) {
	s := New(0, nil)
	v := openVault(t)
	s.Unlock(v)
	assert.True(t, s.Unlocked())

	s.Lock()
	assert.False(t, s.Unlocked())
	_, err := v.Get("smtp_password")
	assert.ErrorIs(t, err, vault.ErrClosed)
}

func TestZeroIdleNeverExpires(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := New(0, nil)
	s.now = clock.Now

	s.Unlock(openVault(t))
	t.Cleanup(s.Lock)

	clock.Advance(24 * 365 * time.Hour)
	_, err := s.Vault()
	assert.NoError(t, err)
}

func TestUnlockReplacesPrevious(t *testing.T) {
	s := New(time.Minute, nil)
	first := openVault(t)
	second := openVault(t)

	s.Unlock(first)
	s.Unlock(second)
	t.Cleanup(s.Lock)

	_, err := first.Get("smtp_password")
	assert.ErrorIs(t, err, vault.ErrClosed)

	got, err := s.Vault()
	require.NoError(t, err)
	assert.Same(t, second, got)
}
