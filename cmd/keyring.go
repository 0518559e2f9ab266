package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/keyring"
	"github.com/illarion/credvault/internal/vault"
)

// KeyringSave saves the master password to the OS keyring
func (a *App) KeyringSave(ctx context.Context) error {
	if _, err := vault.Inspect(a.VaultPath()); err != nil {
		return err
	}

	// Always prompt, a stale keyring entry must not vouch for itself
	password, err := a.promptPassword("Master password: ", func(p []byte) error {
		stop := a.startSpinner("Verifying password...")
		defer stop()

		v, err := vault.Open(ctx, a.VaultPath(), p, a.vaultOptions()...)
		if err != nil {
			return err
		}
		v.Close()
		return nil
	})
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	// Get vault ID (create if not exists)
	vaultID, err := a.ensureVaultID()
	if err != nil {
		return err
	}

	if err := keyring.SavePassword(vaultID, string(password)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}

	a.success("Password saved to keyring")
	return nil
}

// KeyringDelete removes the master password from the OS keyring
func (a *App) KeyringDelete(_ context.Context) error {
	vaultID := a.vaultID()
	if vaultID == "" || !keyring.HasPassword(vaultID) {
		fmt.Fprintln(a.Out, "No password stored in keyring")
		return nil
	}

	if err := keyring.DeletePassword(vaultID); err != nil {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	a.success("Password removed from keyring")
	return nil
}

// KeyringStatus checks if a password is stored in the keyring
func (a *App) KeyringStatus(_ context.Context) error {
	vaultID := a.vaultID()
	if vaultID != "" && keyring.HasPassword(vaultID) {
		fmt.Fprintln(a.Out, "Password: stored in keyring")
	} else {
		fmt.Fprintln(a.Out, "Password: not stored")
	}
	return nil
}
