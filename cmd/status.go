package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/illarion/credvault/internal/git"
	"github.com/illarion/credvault/internal/keyring"
	"github.com/illarion/credvault/internal/vault"
)

// Status shows the state of the vault without asking for a password
func (a *App) Status(_ context.Context) error {
	h, err := vault.Inspect(a.VaultPath())
	if err != nil {
		if err == vault.ErrNotInitialized {
			fmt.Fprintf(a.Out, "No vault found at %s\n", a.VaultPath())
			a.hint("Run 'credvault init' to create one")
			return nil
		}
		return err
	}

	info, err := os.Stat(a.VaultPath())
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "Vault:       %s\n", a.VaultPath())
	fmt.Fprintf(a.Out, "Format:      v%d, PBKDF2-HMAC-SHA256 (%d iterations), AES-256-GCM\n", h.Version, h.Iterations)
	fmt.Fprintf(a.Out, "Size:        %s\n", formatSize(h.Size))
	fmt.Fprintf(a.Out, "Modified:    %s\n", info.ModTime().Format(time.RFC3339))

	perm := info.Mode().Perm()
	if perm&0o077 != 0 {
		fmt.Fprintf(a.Out, "Permissions: %s %s\n", perm, color.YellowString("(readable by others, run: chmod 600 %s)", a.VaultPath()))
	} else {
		fmt.Fprintf(a.Out, "Permissions: %s\n", perm)
	}

	if int(h.Iterations) < a.Config.KDFIterations {
		a.hint("Vault uses fewer KDF iterations than configured, run 'credvault passwd' to upgrade")
	}

	a.printBackupSummary()

	vaultID := a.vaultID()
	if vaultID != "" && keyring.HasPassword(vaultID) {
		fmt.Fprintln(a.Out, "Keyring:     password stored")
	} else {
		fmt.Fprintln(a.Out, "Keyring:     not stored")
	}

	gitStatus := git.CheckFiles([]string{a.VaultPath(), a.HistoryPath(), vault.LockPath(a.VaultPath())})
	fmt.Fprint(a.Out, git.FormatStatus(gitStatus))
	return nil
}

func (a *App) printBackupSummary() {
	if _, err := os.Stat(a.HistoryPath()); err != nil {
		fmt.Fprintln(a.Out, "Backups:     none")
		return
	}

	db, err := a.openHistory()
	if err != nil {
		fmt.Fprintf(a.Out, "Backups:     unavailable (%s)\n", err)
		return
	}
	defer db.Close()

	list, err := db.ListBackups()
	if err != nil || len(list) == 0 {
		fmt.Fprintln(a.Out, "Backups:     none")
		return
	}
	fmt.Fprintf(a.Out, "Backups:     %d (newest %s)\n", len(list), list[0].Created.Format(time.RFC3339))
}

// formatSize formats bytes in human-readable format
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
