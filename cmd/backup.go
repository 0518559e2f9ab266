package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/storage"
	"github.com/illarion/credvault/internal/vault"
)

// BackupList prints saved vault images, newest first
func (a *App) BackupList(_ context.Context) error {
	if _, err := os.Stat(a.HistoryPath()); err != nil {
		fmt.Fprintln(a.Out, "No backups")
		return nil
	}

	db, err := a.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := db.ListBackups()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.Out, "No backups")
		return nil
	}

	for _, b := range list {
		fmt.Fprintf(a.Out, "%d  %s  %s\n", b.ID, b.Created.Format(time.RFC3339), formatSize(int64(b.Size)))
	}
	return nil
}

// BackupRestore replaces the vault with a saved image. The image must open
// with the password it was saved under, which may differ from the current one.
func (a *App) BackupRestore(ctx context.Context, arg string) error {
	image, err := a.loadBackup(arg)
	if err != nil {
		return err
	}

	password, _, err := a.unsealBackup(image, a.knownPassword(a.vaultID()))
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	if err := vault.Restore(ctx, a.VaultPath(), image, password, a.vaultOptions()...); err != nil {
		return err
	}

	a.success("Restored backup %s", arg)
	a.hint("The replaced vault was saved as a new backup")
	return nil
}

// Diff compares a backup with the current vault. Values are never shown.
func (a *App) Diff(ctx context.Context, arg string) error {
	image, err := a.loadBackup(arg)
	if err != nil {
		return err
	}

	v, password, err := a.unlockWithPassword(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	current := make(map[string]string)
	for _, name := range v.Names() {
		current[name], _ = v.Get(name)
	}

	// Backups usually share the current password
	backupPassword, old, err := a.unsealBackup(image, password)
	if err != nil {
		return err
	}
	crypto.ClearBytes(backupPassword)

	changes := vault.Diff(old, current)
	if len(changes) == 0 {
		fmt.Fprintln(a.Out, "No differences")
		return nil
	}
	for _, c := range changes {
		switch c.Kind {
		case vault.Added:
			fmt.Fprintf(a.Out, "+ %s\n", c.Name)
		case vault.Removed:
			fmt.Fprintf(a.Out, "- %s\n", c.Name)
		default:
			fmt.Fprintf(a.Out, "~ %s\n", c.Name)
		}
	}
	return nil
}

// unsealBackup decrypts a backup image with first, falling back to the
// prompt when first is nil or wrong. It consumes first and returns the
// password that worked; the caller must crypto.ClearBytes it.
func (a *App) unsealBackup(image, first []byte) ([]byte, map[string]string, error) {
	if first != nil {
		secrets, err := vault.Unseal(image, first)
		if err == nil {
			return first, secrets, nil
		}
		crypto.ClearBytes(first)
		if !errors.Is(err, vault.ErrInvalidMasterPassword) {
			return nil, nil, err
		}
		fmt.Fprintln(a.Err, "Backup uses a different master password")
	}

	var secrets map[string]string
	password, err := a.promptPassword("Backup master password: ", func(p []byte) error {
		stop := a.startSpinner("Checking backup...")
		defer stop()

		s, err := vault.Unseal(image, p)
		if err != nil {
			return err
		}
		secrets = s
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return password, secrets, nil
}

func (a *App) loadBackup(arg string) ([]byte, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid backup ID %q", ErrUsage, arg)
	}
	if _, err := os.Stat(a.HistoryPath()); err != nil {
		return nil, storage.ErrBackupNotFound
	}

	db, err := a.openHistory()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.GetBackup(id)
}

// Compact compacts the history database to reclaim unused space
func (a *App) Compact(_ context.Context) error {
	info, err := os.Stat(a.HistoryPath())
	if err != nil {
		fmt.Fprintln(a.Out, "No history to compact")
		return nil
	}
	sizeBefore := info.Size()

	db, err := a.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Compact(); err != nil {
		return err
	}

	info, err = os.Stat(a.HistoryPath())
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(info.Size()))
	return nil
}
