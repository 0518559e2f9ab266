package cmd

import (
	"io"
	"os"

	"github.com/illarion/credvault/internal/config"
	"github.com/illarion/credvault/internal/logger"
	"github.com/illarion/credvault/internal/prompt"
	"github.com/illarion/credvault/internal/storage"
	"github.com/illarion/credvault/internal/vault"
)

// App carries the settings and I/O shared by every command.
type App struct {
	Config *config.Config
	Log    *logger.Logger
	In     *prompt.Reader
	Out    io.Writer
	Err    io.Writer
}

// New builds an App from the effective configuration for the given flags.
func New(flags *config.Config) (*App, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}

	return &App{
		Config: cfg,
		Log:    logger.NewLogger(cfg.LogLevel),
		In:     prompt.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
	}, nil
}

// VaultPath returns the configured vault location.
func (a *App) VaultPath() string {
	return a.Config.Vault
}

// HistoryPath returns the backup database next to the vault.
func (a *App) HistoryPath() string {
	return storage.HistoryPath(a.Config.Vault)
}

func (a *App) vaultOptions() []vault.Option {
	return []vault.Option{
		vault.WithIterations(a.Config.KDFIterations),
		vault.WithLogger(a.Log),
		vault.WithBackups(storage.NewHistory(a.HistoryPath(), a.Config.KeepBackups())),
	}
}

// openHistory opens the backup database; the caller must Close it.
func (a *App) openHistory() (*storage.Storage, error) {
	db, err := storage.Open(a.HistoryPath())
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// vaultID returns the ID used as keyring account, or "" when the vault has
// no history database yet.
func (a *App) vaultID() string {
	if _, err := os.Stat(a.HistoryPath()); err != nil {
		return ""
	}
	db, err := storage.Open(a.HistoryPath())
	if err != nil {
		a.Log.Debug().Err(err).Msg("history unavailable")
		return ""
	}
	defer db.Close()

	id, err := db.GetVaultID()
	if err != nil {
		return ""
	}
	return id
}

// ensureVaultID returns the vault ID, creating it if needed.
func (a *App) ensureVaultID() (string, error) {
	db, err := a.openHistory()
	if err != nil {
		return "", err
	}
	defer db.Close()
	return db.GetOrCreateVaultID()
}
