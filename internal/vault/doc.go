// Package vault implements the encrypted credential vault.
//
// A vault is a single owner-only file holding a map of named secrets,
// encrypted with AES-256-GCM under a key derived from the master passphrase.
//
// Operations:
//   - Open: create a new vault or decrypt an existing one into a handle
//   - Get/Names: read from the decrypted in-memory map
//   - Set/Delete/Update: modify and persist the whole map
//   - Rotate: re-encrypt under a new passphrase and salt
//   - Restore/Unseal: work with raw vault images such as backups
//
// Every write goes to a temp file that is renamed over the vault, so a
// crash leaves either the old or the new vault on disk. Writers hold an
// advisory lock on <vault>.lock for the whole read-modify-write cycle.
package vault
