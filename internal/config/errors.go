package config

import "errors"

// Validation errors returned by [Config.validate].
var (
	// ErrNoVaultPath indicates that no vault location could be determined.
	ErrNoVaultPath = errors.New("vault path is not set")
	// ErrWeakKDF indicates a PBKDF2 iteration count below MinKDFIterations.
	ErrWeakKDF = errors.New("kdf iterations too low")
	// ErrInvalidLogLevel indicates a level zerolog does not recognize.
	ErrInvalidLogLevel = errors.New("invalid log level")
)
