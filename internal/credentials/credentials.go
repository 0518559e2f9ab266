// Package credentials stores the SMTP account used for outreach email in a
// credential vault.
//
// The account occupies a fixed set of vault entries:
//   - smtp_username: account email address
//   - smtp_password: app password
//   - smtp_saved_at: RFC3339 UTC time of the last Save
//   - smtp_server, smtp_port: optional server override
package credentials

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/illarion/credvault/internal/vault"
)

// Vault entry names
const (
	KeyUsername = "smtp_username"
	KeyPassword = "smtp_password"
	KeySavedAt  = "smtp_saved_at"
	KeyServer   = "smtp_server"
	KeyPort     = "smtp_port"
)

const (
	DefaultServer = "smtp.gmail.com"
	DefaultPort   = 587
)

var (
	// ErrAccountMismatch is returned by Load when the stored account belongs
	// to a different email address.
	ErrAccountMismatch = errors.New("stored account does not match")
	ErrEmptyEmail      = errors.New("email address is required")
	ErrEmptyPassword   = errors.New("app password is required")
	ErrInvalidPort     = errors.New("invalid smtp port")
)

// Store is the subset of *vault.Vault used here. Update must apply all
// changes made by fn in one write, or none of them.
type Store interface {
	Get(name string) (string, error)
	Update(ctx context.Context, fn func(secrets map[string]string) error) error
}

// Account is a saved SMTP login.
type Account struct {
	Email    string
	Password string
	Server   string
	Port     int
	SavedAt  time.Time
}

// Addr returns host:port for dialing.
func (a *Account) Addr() string {
	return net.JoinHostPort(a.Server, strconv.Itoa(a.Port))
}

// Save stores the account email and app password together with the save time.
// Saving a different email than the stored one also drops the previous
// account's server override.
func Save(ctx context.Context, store Store, email, appPassword string) error {
	if email == "" {
		return ErrEmptyEmail
	}
	if appPassword == "" {
		return ErrEmptyPassword
	}

	savedAt := time.Now().UTC().Format(time.RFC3339)
	err := store.Update(ctx, func(secrets map[string]string) error {
		if previous, ok := secrets[KeyUsername]; ok && previous != email {
			delete(secrets, KeyServer)
			delete(secrets, KeyPort)
		}
		secrets[KeyUsername] = email
		secrets[KeyPassword] = appPassword
		secrets[KeySavedAt] = savedAt
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// SaveServer overrides the SMTP server used with the saved account.
func SaveServer(ctx context.Context, store Store, server string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	err := store.Update(ctx, func(secrets map[string]string) error {
		secrets[KeyServer] = server
		secrets[KeyPort] = strconv.Itoa(port)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save server: %w", err)
	}
	return nil
}

// Load returns the saved account if it belongs to email. An empty email
// returns whatever account is stored. vault.ErrSecretNotFound is returned
// when no account is saved.
func Load(store Store, email string) (*Account, error) {
	username, err := store.Get(KeyUsername)
	if err != nil {
		return nil, err
	}
	if email != "" && username != email {
		return nil, ErrAccountMismatch
	}

	password, err := store.Get(KeyPassword)
	if err != nil {
		return nil, err
	}

	acct := &Account{
		Email:    username,
		Password: password,
		Server:   DefaultServer,
		Port:     DefaultPort,
	}

	if saved, err := store.Get(KeySavedAt); err == nil {
		if t, err := time.Parse(time.RFC3339, saved); err == nil {
			acct.SavedAt = t
		}
	} else if !errors.Is(err, vault.ErrSecretNotFound) {
		return nil, err
	}

	if server, err := store.Get(KeyServer); err == nil && server != "" {
		acct.Server = server
	}
	if port, err := store.Get(KeyPort); err == nil {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPort, port)
		}
		acct.Port = p
	}

	return acct, nil
}

// Forget removes every account entry in one write. vault.ErrSecretNotFound
// is returned, and nothing is written, if no entry was stored.
func Forget(ctx context.Context, store Store) error {
	return store.Update(ctx, func(secrets map[string]string) error {
		removed := 0
		for _, name := range []string{KeyUsername, KeyPassword, KeySavedAt, KeyServer, KeyPort} {
			if _, ok := secrets[name]; ok {
				delete(secrets, name)
				removed++
			}
		}
		if removed == 0 {
			return vault.ErrSecretNotFound
		}
		return nil
	})
}
