package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/keyring"
	"github.com/illarion/credvault/internal/vault"
)

// Passwd changes the master password
func (a *App) Passwd(ctx context.Context) error {
	if _, err := vault.Inspect(a.VaultPath()); err != nil {
		return err
	}

	// Get vault ID for keyring lookup
	vaultID := a.vaultID()

	var v *vault.Vault
	currentPassword, _, err := a.GetPasswordWithRetry("Current master password: ", vaultID, func(p []byte) error {
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
		return err
	}
	crypto.ClearBytes(currentPassword)
	defer v.Close()

	newPassword, err := a.In.PasswordConfirm("New master password: ", "Confirm password: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(newPassword)

	stop := a.startSpinner("Re-encrypting vault...")
	err = v.Rotate(ctx, newPassword)
	stop()
	if err != nil {
		return err
	}

	// Only refresh an entry the user opted into
	if vaultID != "" && keyring.HasPassword(vaultID) {
		if err := keyring.SavePassword(vaultID, string(newPassword)); err != nil {
			fmt.Fprintf(a.Err, "warning: failed to update keyring: %s\n", err)
		} else {
			a.hint("Keyring updated with new password")
		}
	}

	a.success("Master password changed")
	a.hint("Backups keep their old password")
	return nil
}
