// Package crypto provides cryptographic operations for credvault.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the master passphrase via PBKDF2
//   - 12-byte random nonce per encryption operation
//   - Additional data binding the vault header to the ciphertext
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 16-byte random salt (stored unencrypted)
//   - 210,000 iterations by default (OWASP minimum recommendation)
//   - 64 bytes of output: encryption key plus key-check key
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Keys.Destroy() when done with a vault generation
package crypto
