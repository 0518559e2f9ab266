package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/illarion/credvault/internal/config"
	"github.com/illarion/credvault/internal/credentials"
	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/keyring"
	"github.com/illarion/credvault/internal/prompt"
	"github.com/illarion/credvault/internal/session"
	"github.com/illarion/credvault/internal/storage"
	"github.com/illarion/credvault/internal/vault"
)

var (
	ErrAlreadyExists = errors.New("vault already exists")
	ErrUsage         = errors.New("invalid arguments")
)

// passwordSource tells where a verified password came from.
type passwordSource int

const (
	sourcePrompt passwordSource = iota
	sourceEnv
	sourceKeyring
)

const maxPasswordAttempts = 3

// GetPasswordWithRetry obtains the master password and checks it with verify.
//
// Sources are tried in order: CREDVAULT_PASSWORD, the OS keyring (when
// vaultID is known) and the prompt. A stale keyring entry falls through to
// the prompt. On a terminal a wrong password may be re-entered up to three
// times. The caller must crypto.ClearBytes the returned password.
func (a *App) GetPasswordWithRetry(label, vaultID string, verify func([]byte) error) ([]byte, passwordSource, error) {
	if password := prompt.PasswordFromEnv(); password != nil {
		if err := verify(password); err != nil {
			crypto.ClearBytes(password)
			return nil, sourceEnv, err
		}
		return password, sourceEnv, nil
	}

	if vaultID != "" {
		if stored, err := keyring.GetPassword(vaultID); err == nil {
			password := []byte(stored)
			err := verify(password)
			if err == nil {
				return password, sourceKeyring, nil
			}
			crypto.ClearBytes(password)
			if !errors.Is(err, vault.ErrInvalidMasterPassword) {
				return nil, sourceKeyring, err
			}
			fmt.Fprintln(a.Err, color.YellowString("!")+" Password in keyring is outdated")
		}
	}

	password, err := a.promptPassword(label, verify)
	return password, sourcePrompt, err
}

// promptPassword asks for a password until verify accepts it. On a terminal
// a wrong password may be re-entered up to three times.
func (a *App) promptPassword(label string, verify func([]byte) error) ([]byte, error) {
	attempts := 1
	if a.In.Terminal() {
		attempts = maxPasswordAttempts
	}

	for i := 1; ; i++ {
		password, err := a.In.Password(label)
		if err != nil {
			return nil, err
		}

		err = verify(password)
		if err == nil {
			return password, nil
		}
		crypto.ClearBytes(password)

		if !errors.Is(err, vault.ErrInvalidMasterPassword) || i >= attempts {
			return nil, err
		}
		fmt.Fprintln(a.Err, "Wrong master password, try again")
	}
}

// knownPassword returns the password from CREDVAULT_PASSWORD or the keyring
// without verifying it, or nil.
func (a *App) knownPassword(vaultID string) []byte {
	if password := prompt.PasswordFromEnv(); password != nil {
		return password
	}
	if vaultID != "" {
		if stored, err := keyring.GetPassword(vaultID); err == nil {
			return []byte(stored)
		}
	}
	return nil
}

// GetPasswordForInit reads a new master password from the environment or,
// failing that, prompts twice.
func (a *App) GetPasswordForInit(label string) ([]byte, error) {
	if password := prompt.PasswordFromEnv(); password != nil {
		return password, nil
	}
	return a.In.PasswordConfirm(label, "Confirm password: ")
}

// unlock opens the existing vault, asking for the master password.
func (a *App) unlock(ctx context.Context) (*vault.Vault, error) {
	v, password, err := a.unlockWithPassword(ctx)
	if err != nil {
		return nil, err
	}
	crypto.ClearBytes(password)
	return v, nil
}

// unlockWithPassword is unlock that also returns the verified password.
// The caller must crypto.ClearBytes it.
func (a *App) unlockWithPassword(ctx context.Context) (*vault.Vault, []byte, error) {
	if _, err := vault.Inspect(a.VaultPath()); err != nil {
		return nil, nil, err
	}

	var v *vault.Vault
	password, _, err := a.GetPasswordWithRetry("Master password: ", a.vaultID(), func(p []byte) error {
		stop := a.startSpinner("Unlocking vault...")
		defer stop()

		opened, err := vault.Open(ctx, a.VaultPath(), p, a.vaultOptions()...)
		if err != nil {
			return err
		}
		v = opened
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return v, password, nil
}

// startSpinner shows progress on stderr while the key is derived.
// It returns a function that stops the spinner.
func (a *App) startSpinner(message string) func() {
	if !a.In.Terminal() {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	if err := s.Color("cyan"); err != nil {
		// If we can't set spinner color, just continue without it
		a.Log.Debug().Err(err).Msg("failed to set spinner color")
	}
	s.Start()
	return s.Stop
}

func (a *App) success(format string, args ...any) {
	fmt.Fprintln(a.Out, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

func (a *App) hint(format string, args ...any) {
	fmt.Fprintln(a.Out, color.CyanString("→")+" "+fmt.Sprintf(format, args...))
}

// Describe turns an error into the message shown to the user.
func Describe(err error) string {
	switch {
	case errors.Is(err, vault.ErrNotInitialized):
		return "Error: vault not initialized\nRun 'credvault init' first"
	case errors.Is(err, ErrAlreadyExists):
		return "Error: vault already exists\nUse 'credvault status' to see current state"
	case errors.Is(err, vault.ErrInvalidMasterPassword):
		return "Error: wrong master password"
	case errors.Is(err, vault.ErrVaultCorrupted):
		return "Error: vault file is corrupted or was tampered with\n" +
			"Restore a backup ('credvault backup list', then 'credvault backup restore ID')\n" +
			"or move the file away and run 'credvault init'"
	case errors.Is(err, vault.ErrSecretNotFound):
		return "Error: no such secret"
	case errors.Is(err, vault.ErrPersistenceFailure):
		return fmt.Sprintf("Error: %s\nThe vault file was left unchanged", err)
	case errors.Is(err, vault.ErrEmptyPassphrase):
		return "Error: master password must not be empty"
	case errors.Is(err, vault.ErrInvalidName):
		return "Error: secret names must be non-empty valid UTF-8 and must not contain control characters"
	case errors.Is(err, vault.ErrInvalidValue):
		return "Error: secret values must be valid UTF-8"
	case errors.Is(err, prompt.ErrPasswordMismatch):
		return "Error: passwords do not match"
	case errors.Is(err, storage.ErrBackupNotFound):
		return "Error: backup not found\nUse 'credvault backup list' to see saved backups"
	case errors.Is(err, credentials.ErrAccountMismatch):
		return "Error: the saved account belongs to a different email address"
	case errors.Is(err, session.ErrLocked):
		return "Error: session is locked"
	case errors.Is(err, config.ErrNoVaultPath):
		return "Error: cannot determine vault location\nSet CREDVAULT_VAULT or pass -vault"
	case errors.Is(err, context.Canceled):
		return "Error: interrupted"
	default:
		return fmt.Sprintf("Error: %s", err)
	}
}

// HandleError prints err and exits with status 1.
func HandleError(err error) {
	fmt.Fprintln(os.Stderr, Describe(err))
	os.Exit(1)
}
