// Package storage provides the BBolt history database kept next to a vault.
//
// Database structure uses two buckets:
//   - config: format version, timestamps, vault ID (used as keyring account)
//   - backups: previous vault images keyed by big-endian unix-nano timestamp
//
// Vault images are stored exactly as they were on disk, so the history
// never contains plaintext. Restoring an image still requires the
// passphrase it was encrypted with.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
