package cmd

import (
	"context"
	"os"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/vault"
)

// Init creates a new vault at the configured path
func (a *App) Init(ctx context.Context) error {
	if _, err := os.Stat(a.VaultPath()); err == nil {
		return ErrAlreadyExists
	}

	// Read password (env var or prompt with confirmation)
	password, err := a.GetPasswordForInit("New master password: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	stop := a.startSpinner("Creating vault...")
	v, err := vault.Open(ctx, a.VaultPath(), password, a.vaultOptions()...)
	stop()
	if err != nil {
		return err
	}
	defer v.Close()

	if _, err := a.ensureVaultID(); err != nil {
		a.Log.Warn().Err(err).Msg("failed to initialize history")
	}

	a.success("Initialized vault at %s", v.Path())
	a.hint("The master password is not stored anywhere, remember it")
	return nil
}
