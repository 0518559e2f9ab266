package vault

import "errors"

var (
	ErrInvalidMasterPassword = errors.New("invalid master password")
	ErrVaultCorrupted        = errors.New("vault corrupted")
	ErrSecretNotFound        = errors.New("secret not found")
	ErrPersistenceFailure    = errors.New("failed to persist vault")
	ErrEmptyPassphrase       = errors.New("master passphrase must not be empty")
	ErrInvalidName           = errors.New("secret name must be non-empty valid UTF-8 without control characters")
	ErrInvalidValue          = errors.New("secret value must be valid UTF-8")
	ErrClosed                = errors.New("vault is closed")
	ErrNotInitialized        = errors.New("vault not initialized")
)
