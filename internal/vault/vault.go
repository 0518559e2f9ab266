package vault

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os"
	"sort"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/logger"
)

// Backuper keeps copies of vault images that are about to be replaced.
type Backuper interface {
	SaveBackup(image []byte) error
}

type options struct {
	iterations int
	log        *logger.Logger
	backups    Backuper
}

// Option configures Open, Restore and Rotate.
type Option func(*options)

// WithIterations sets the PBKDF2 iteration count used when a vault is
// created or its passphrase is rotated. Existing vaults keep the count
// stored in their header.
func WithIterations(n int) Option {
	return func(o *options) {
		o.iterations = n
	}
}

// WithLogger sets the logger for vault diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithBackups saves the previous vault image to b after every successful
// overwrite.
func WithBackups(b Backuper) Option {
	return func(o *options) {
		o.backups = b
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		iterations: crypto.DefaultIters,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Vault is an open handle to an encrypted credential vault. It holds the
// derived key and the decrypted secrets until Close is called.
type Vault struct {
	mu      sync.Mutex
	path    string
	header  *Header
	keys    *crypto.Keys
	secrets map[string]string
	opts    *options
	writer  atomicWriter
	closed  bool

	// unsaved holds changes that failed to persist. A nil value marks a
	// deletion. They are re-applied on top of every reload until a write
	// succeeds.
	unsaved map[string]*string
}

// Open opens the vault at path, creating it when it does not exist yet.
//
// A new vault gets a fresh salt and an empty secret map and is written with
// owner-only permissions. For an existing vault the key is derived from the
// stored salt; a wrong passphrase yields ErrInvalidMasterPassword and a
// malformed file yields ErrVaultCorrupted.
func Open(ctx context.Context, path string, passphrase []byte, opts ...Option) (*Vault, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o := newOptions(opts)
	log := o.log.Component("vault")

	fl, err := acquire(ctx, path)
	if err != nil {
		return nil, err
	}
	defer fl.Unlock()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		v, err := create(path, passphrase, o)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", path).Msg("vault created")
		return v, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}

	h, sealed, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	kdf := &crypto.KDF{Salt: h.Salt, Iterations: int(h.Iterations)}
	keys := kdf.DeriveKeys(passphrase)

	secrets, err := openImage(h, sealed, keys)
	if err != nil {
		keys.Destroy()
		log.Debug().Str("path", path).Err(err).Msg("vault open failed")
		return nil, err
	}

	log.Debug().Str("path", path).Int("entries", len(secrets)).Msg("vault opened")

	return &Vault{
		path:    path,
		header:  h,
		keys:    keys,
		secrets: secrets,
		opts:    o,
	}, nil
}

func create(path string, passphrase []byte, o *options) (*Vault, error) {
	kdf, err := crypto.NewKDF(o.iterations)
	if err != nil {
		return nil, err
	}
	keys := kdf.DeriveKeys(passphrase)

	v := &Vault{
		path:    path,
		header:  newHeader(kdf, keys),
		keys:    keys,
		secrets: map[string]string{},
		opts:    o,
	}

	image, err := sealImage(v.header, v.keys, v.secrets)
	if err != nil {
		keys.Destroy()
		return nil, err
	}
	if err := commit(o, &v.writer, path, nil, image); err != nil {
		keys.Destroy()
		return nil, err
	}
	return v, nil
}

// Path returns the vault file location.
func (v *Vault) Path() string {
	return v.path
}

// Get returns the value stored under name.
func (v *Vault) Get(name string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return "", ErrClosed
	}
	value, ok := v.secrets[name]
	if !ok {
		return "", ErrSecretNotFound
	}
	return value, nil
}

// Names returns the sorted entry names.
func (v *Vault) Names() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	names := make([]string, 0, len(v.secrets))
	for name := range v.secrets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set stores value under name and persists the vault.
//
// Names must be non-empty valid UTF-8 without control characters and values
// must be valid UTF-8. If persisting fails the error wraps
// ErrPersistenceFailure and the change stays pending in the handle: it is
// visible to Get and is written together with the next successful mutation.
func (v *Vault) Set(ctx context.Context, name, value string) error {
	if err := validEntry(name, value); err != nil {
		return err
	}
	return v.mutate(ctx, func(secrets map[string]string) error {
		secrets[name] = value
		return nil
	})
}

// Update applies fn to a copy of the entries and persists the result in a
// single write. If fn returns an error nothing changes. Entries added or
// changed by fn are validated like Set arguments. Persistence failures are
// handled as in Set.
func (v *Vault) Update(ctx context.Context, fn func(secrets map[string]string) error) error {
	return v.mutate(ctx, fn)
}

// Delete removes name and persists the vault. Deleting a name that is not
// present returns ErrSecretNotFound and leaves the file untouched, on every
// call. Persistence failures are handled as in Set.
func (v *Vault) Delete(ctx context.Context, name string) error {
	return v.mutate(ctx, func(secrets map[string]string) error {
		if _, ok := secrets[name]; !ok {
			return ErrSecretNotFound
		}
		delete(secrets, name)
		return nil
	})
}

// Rotate re-encrypts the vault under newPassphrase with a fresh salt.
// The handle switches to the new key only after the file was replaced.
func (v *Vault) Rotate(ctx context.Context, newPassphrase []byte) error {
	if len(newPassphrase) == 0 {
		return ErrEmptyPassphrase
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}

	fl, err := acquire(ctx, v.path)
	if err != nil {
		return err
	}
	defer fl.Unlock()

	previous, err := v.reload()
	if err != nil {
		return err
	}

	kdf, err := crypto.NewKDF(v.opts.iterations)
	if err != nil {
		return err
	}
	keys := kdf.DeriveKeys(newPassphrase)
	header := newHeader(kdf, keys)

	image, err := sealImage(header, keys, v.secrets)
	if err != nil {
		keys.Destroy()
		return err
	}
	if err := commit(v.opts, &v.writer, v.path, previous, image); err != nil {
		keys.Destroy()
		return err
	}

	v.keys.Destroy()
	v.keys = keys
	v.header = header
	v.unsaved = nil

	v.opts.log.Component("vault").Info().Str("path", v.path).Msg("master passphrase rotated")
	return nil
}

// Close clears the key and the decrypted secrets. The handle is unusable
// afterwards.
func (v *Vault) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.keys.Destroy()
	v.secrets = nil
	v.unsaved = nil
	v.closed = true
}

// mutate runs the read-decrypt-modify-encrypt-write cycle under the file lock.
// fn works on a copy; the handle adopts it only once fn succeeded.
func (v *Vault) mutate(ctx context.Context, fn func(map[string]string) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}

	fl, err := acquire(ctx, v.path)
	if err != nil {
		return err
	}
	defer fl.Unlock()

	previous, err := v.reload()
	if err != nil {
		return err
	}

	next := maps.Clone(v.secrets)
	if err := fn(next); err != nil {
		return err
	}
	for name, value := range next {
		if old, ok := v.secrets[name]; ok && old == value {
			continue
		}
		if err := validEntry(name, value); err != nil {
			return err
		}
	}

	image, err := sealImage(v.header, v.keys, next)
	if err == nil {
		err = commit(v.opts, &v.writer, v.path, previous, image)
	}
	if err != nil {
		v.keepUnsaved(next)
		return err
	}
	v.secrets = next
	v.unsaved = nil

	v.opts.log.Component("vault").Debug().
		Str("path", v.path).
		Int("entries", len(v.secrets)).
		Msg("vault persisted")
	return nil
}

// reload refreshes the in-memory secrets from disk so that writes made by
// other processes are not lost. It returns the current file image, or nil
// when the file has disappeared (it is then recreated from memory).
// The caller must hold the file lock.
func (v *Vault) reload() ([]byte, error) {
	data, err := os.ReadFile(v.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}

	h, sealed, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Iterations != v.header.Iterations || !bytes.Equal(h.Salt, v.header.Salt) {
		return nil, fmt.Errorf("%w: vault was re-keyed by another process", ErrInvalidMasterPassword)
	}

	secrets, err := openImage(h, sealed, v.keys)
	if err != nil {
		return nil, err
	}
	for name, value := range v.unsaved {
		if value == nil {
			delete(secrets, name)
		} else {
			secrets[name] = *value
		}
	}
	v.secrets = secrets
	return data, nil
}

// keepUnsaved adopts next as the in-memory state after a failed write and
// records how it differs from the current one.
func (v *Vault) keepUnsaved(next map[string]string) {
	if v.unsaved == nil {
		v.unsaved = map[string]*string{}
	}
	for name, value := range next {
		if old, ok := v.secrets[name]; !ok || old != value {
			v.unsaved[name] = &value
		}
	}
	for name := range v.secrets {
		if _, ok := next[name]; !ok {
			v.unsaved[name] = nil
		}
	}
	v.secrets = next
}

func validEntry(name, value string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	if !utf8.ValidString(value) {
		return ErrInvalidValue
	}
	return nil
}

func validName(name string) bool {
	if name == "" || !utf8.ValidString(name) {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Unseal decrypts a raw vault image, such as a backup, with passphrase.
func Unseal(image, passphrase []byte) (map[string]string, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}

	h, sealed, err := parseHeader(image)
	if err != nil {
		return nil, err
	}

	kdf := &crypto.KDF{Salt: h.Salt, Iterations: int(h.Iterations)}
	keys := kdf.DeriveKeys(passphrase)
	defer keys.Destroy()

	return openImage(h, sealed, keys)
}

// Restore replaces the vault at path with image after checking that image
// opens with passphrase. The replaced image is handed to the configured
// Backuper, so a restore can itself be undone.
func Restore(ctx context.Context, path string, image, passphrase []byte, opts ...Option) error {
	if _, err := Unseal(image, passphrase); err != nil {
		return err
	}

	o := newOptions(opts)

	fl, err := acquire(ctx, path)
	if err != nil {
		return err
	}
	defer fl.Unlock()

	previous, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read vault: %w", err)
	}

	var w atomicWriter
	if err := commit(o, &w, path, previous, image); err != nil {
		return err
	}

	o.log.Component("vault").Info().Str("path", path).Msg("vault restored")
	return nil
}

func openImage(h *Header, sealed []byte, keys *crypto.Keys) (map[string]string, error) {
	if !keys.VerifyCheck(h.prefix(), h.Check) {
		return nil, ErrInvalidMasterPassword
	}

	plaintext, err := keys.Encryptor().Open(sealed, h.bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVaultCorrupted, err)
	}
	defer crypto.ClearBytes(plaintext)

	return decodePayload(plaintext)
}

func sealImage(h *Header, keys *crypto.Keys, secrets map[string]string) ([]byte, error) {
	plaintext, err := encodePayload(secrets)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(plaintext)

	header := h.bytes()
	sealed, err := keys.Encryptor().Seal(plaintext, header)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt vault: %w", err)
	}
	return append(header, sealed...), nil
}

// commit writes image over path and then saves previous as a backup.
func commit(o *options, w *atomicWriter, path string, previous, image []byte) error {
	if err := w.write(path, image); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	if previous != nil && o.backups != nil {
		if err := o.backups.SaveBackup(previous); err != nil {
			o.log.Component("vault").Warn().Err(err).Msg("failed to save backup")
		}
	}
	return nil
}
