package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

const (
	EnvPrefix = "CREDVAULT_"

	DefaultKDFIterations = 210000
	MinKDFIterations     = 100000
	DefaultIdleTimeout   = 5 * time.Minute
	DefaultBackups       = 10
	DefaultLogLevel      = "warn"

	appDir    = "credvault"
	vaultFile = "credentials.vault"
)

// Config holds runtime settings.
//
// Zero values mean "not set" so that layers can be merged. A negative
// IdleTimeout disables the idle timeout and a negative Backups keeps every
// backup.
type Config struct {
	Vault         string        `env:"VAULT"`
	KDFIterations int           `env:"KDF_ITERATIONS"`
	IdleTimeout   time.Duration `env:"IDLE_TIMEOUT"`
	Backups       int           `env:"BACKUPS"`
	LogLevel      string        `env:"LOG_LEVEL"`
}

// Load builds the effective configuration from defaults, the environment and
// flags. flags may be nil.
func Load(flags *Config) (*Config, error) {
	return newConfigBuilder().
		withDefaults().
		withEnv().
		with(flags).
		build()
}

// RegisterFlags binds the flags shared by every command to a Config that can
// later be passed to Load.
func RegisterFlags(fs *flag.FlagSet) *Config {
	cfg := &Config{}
	fs.StringVar(&cfg.Vault, "vault", "", "Vault file path (env "+EnvPrefix+"VAULT)")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level: debug, info, warn, error (env "+EnvPrefix+"LOG_LEVEL)")
	return cfg
}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		Vault:         DefaultVaultPath(),
		KDFIterations: DefaultKDFIterations,
		IdleTimeout:   DefaultIdleTimeout,
		Backups:       DefaultBackups,
		LogLevel:      DefaultLogLevel,
	}
}

// DefaultVaultPath returns $XDG_CONFIG_HOME/credvault/credentials.vault or the
// platform equivalent. It is empty when no config directory is known.
func DefaultVaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDir, vaultFile)
}

// Idle returns the session idle timeout; zero means disabled.
func (c *Config) Idle() time.Duration {
	if c.IdleTimeout < 0 {
		return 0
	}
	return c.IdleTimeout
}

// KeepBackups returns how many backups to keep; zero means all of them.
func (c *Config) KeepBackups() int {
	if c.Backups < 0 {
		return 0
	}
	return c.Backups
}

func (c *Config) validate() error {
	var errs []error

	if c.Vault == "" {
		errs = append(errs, ErrNoVaultPath)
	}
	if c.KDFIterations != 0 && c.KDFIterations < MinKDFIterations {
		errs = append(errs, fmt.Errorf("%w: %d < %d", ErrWeakKDF, c.KDFIterations, MinKDFIterations))
	}
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel))
		}
	}

	return errors.Join(errs...)
}

type configBuilder struct {
	configs []*Config
	err     error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{
		configs: make([]*Config, 0, 3),
	}
}

func (b *configBuilder) build() (*Config, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occurred during building config: %w", b.err)
	}

	config := new(Config)
	for _, cfg := range b.configs {
		if err := mergo.Merge(config, cfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (b *configBuilder) withDefaults() *configBuilder {
	return b.with(Defaults())
}

func (b *configBuilder) withEnv() *configBuilder {
	envCfg := &Config{}
	if err := parseEnv(envCfg); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.configs = append(b.configs, envCfg)
	return b
}

func (b *configBuilder) with(cfg *Config) *configBuilder {
	if cfg != nil {
		b.configs = append(b.configs, cfg)
	}
	return b
}

// parseEnv populates cfg from CREDVAULT_* environment variables.
func parseEnv(cfg *Config) error {
	err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix})
	if err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	return nil
}
