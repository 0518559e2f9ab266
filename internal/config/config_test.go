package config

import (
	"flag"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"VAULT", "KDF_ITERATIONS", "IDLE_TIMEOUT", "BACKUPS", "LOG_LEVEL"} {
		t.Setenv(EnvPrefix+name, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultKDFIterations, cfg.KDFIterations)
	assert.Equal(t, DefaultIdleTimeout, cfg.IdleTimeout)
	assert.Equal(t, DefaultBackups, cfg.Backups)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, filepath.Join(appDir, vaultFile), filepath.Join(filepath.Base(filepath.Dir(cfg.Vault)), filepath.Base(cfg.Vault)))
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CREDVAULT_VAULT", "/tmp/env.vault")
	t.Setenv("CREDVAULT_KDF_ITERATIONS", "300000")
	t.Setenv("CREDVAULT_IDLE_TIMEOUT", "30s")
	t.Setenv("CREDVAULT_BACKUPS", "3")
	t.Setenv("CREDVAULT_LOG_LEVEL", "debug")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.vault", cfg.Vault)
	assert.Equal(t, 300000, cfg.KDFIterations)
	assert.Equal(t, 30*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 3, cfg.Backups)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CREDVAULT_VAULT", "/tmp/env.vault")
	t.Setenv("CREDVAULT_LOG_LEVEL", "debug")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-vault", "/tmp/flag.vault"}))

	cfg, err := Load(flags)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/flag.vault", cfg.Vault)
	// unset flag keeps the env value
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CREDVAULT_BACKUPS", "many")

	cfg, err := Load(nil)
	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	clearEnv(t)

	t.Setenv("CREDVAULT_KDF_ITERATIONS", "1000")
	_, err := Load(nil)
	assert.ErrorIs(t, err, ErrWeakKDF)

	t.Setenv("CREDVAULT_KDF_ITERATIONS", "")
	t.Setenv("CREDVAULT_LOG_LEVEL", "loud")
	_, err = Load(nil)
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestBuild_NoVaultPath(t *testing.T) {
	_, err := newConfigBuilder().with(&Config{LogLevel: "info"}).build()
	assert.ErrorIs(t, err, ErrNoVaultPath)
}

func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestNegativeValuesDisable(t *testing.T) {
	cfg := &Config{IdleTimeout: -time.Second, Backups: -1}
	assert.Zero(t, cfg.Idle())
	assert.Zero(t, cfg.KeepBackups())

	cfg = &Config{IdleTimeout: time.Minute, Backups: 4}
	assert.Equal(t, time.Minute, cfg.Idle())
	assert.Equal(t, 4, cfg.KeepBackups())
}
