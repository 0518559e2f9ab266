// Package session keeps one unlocked vault in memory for a bounded time.
//
// A Session replaces process-wide "current vault" state: callers hold the
// Session explicitly, and the decrypted vault is closed (its key zeroed)
// once the idle timeout passes without use or when Lock is called.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/illarion/credvault/internal/logger"
	"github.com/illarion/credvault/internal/vault"
)

// ErrLocked is returned by Vault when no vault is unlocked.
var ErrLocked = errors.New("session is locked")

// Session owns at most one unlocked vault.
type Session struct {
	mu       sync.Mutex
	v        *vault.Vault
	idle     time.Duration
	lastUsed time.Time
	timer    *time.Timer
	now      func() time.Time
	log      *logger.Logger
}

// New returns a locked Session. idle <= 0 disables the idle timeout.
func New(idle time.Duration, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		idle: idle,
		now:  time.Now,
		log:  log.Component("session"),
	}
}

// Unlock hands v to the session. A previously unlocked vault is closed.
// Unlock(nil) is the same as Lock.
func (s *Session) Unlock(v *vault.Vault) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v == nil {
		s.lockLocked("explicit lock")
		return
	}

	if s.v != nil && s.v != v {
		s.v.Close()
	}
	s.v = v
	s.lastUsed = s.now()

	if s.idle > 0 {
		if s.timer == nil {
			s.timer = time.AfterFunc(s.idle, s.expire)
		} else {
			s.timer.Reset(s.idle)
		}
	}
	s.log.Debug().Str("path", v.Path()).Dur("idle", s.idle).Msg("session unlocked")
}

// Vault returns the unlocked vault and refreshes the idle deadline.
func (s *Session) Vault() (*vault.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.v == nil {
		return nil, ErrLocked
	}
	if s.expiredLocked() {
		s.lockLocked("idle timeout")
		return nil, ErrLocked
	}

	s.lastUsed = s.now()
	if s.timer != nil {
		s.timer.Reset(s.idle)
	}
	return s.v, nil
}

// Unlocked reports whether a vault is held and has not timed out.
func (s *Session) Unlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v != nil && !s.expiredLocked()
}

// Lock closes the held vault, if any.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockLocked("explicit lock")
}

func (s *Session) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.v == nil {
		return
	}
	if s.expiredLocked() {
		s.lockLocked("idle timeout")
		return
	}
	// used since the timer was armed
	s.timer.Reset(s.idle - s.now().Sub(s.lastUsed))
}

func (s *Session) expiredLocked() bool {
	return s.idle > 0 && s.now().Sub(s.lastUsed) >= s.idle
}

func (s *Session) lockLocked(reason string) {
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.v == nil {
		return
	}
	s.v.Close()
	s.v = nil
	s.log.Debug().Str("reason", reason).Msg("session locked")
}
