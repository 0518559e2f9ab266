package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize     = 16     // Salt size in bytes
	KeySize      = 32     // AES-256 key size
	CheckSize    = 32     // HMAC-SHA256 key check size
	NonceSize    = 12     // GCM nonce size
	TagSize      = 16     // GCM authentication tag size
	DefaultIters = 210000 // Default PBKDF2 iterations (OWASP minimum)
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrAuthFailed        = errors.New("authentication failed")
)

// KDF handles key derivation from passphrases
type KDF struct {
	Salt       []byte
	Iterations int
}

// NewKDF creates a new KDF with a random salt and the given iteration count.
// A non-positive count selects DefaultIters.
func NewKDF(iterations int) (*KDF, error) {
	if iterations <= 0 {
		iterations = DefaultIters
	}

	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	return &KDF{
		Salt:       salt,
		Iterations: iterations,
	}, nil
}

// DeriveKeys derives the encryption key and the key-check key from a passphrase.
// Both halves come from a single PBKDF2 output.
func (k *KDF) DeriveKeys(passphrase []byte) *Keys {
	material := pbkdf2.Key(passphrase, k.Salt, k.Iterations, KeySize+CheckSize, sha256.New)
	return &Keys{
		enc:   material[:KeySize:KeySize],
		check: material[KeySize:],
	}
}

// Keys is the derived key material of one vault generation.
type Keys struct {
	enc   []byte
	check []byte
}

// Check computes the key check value over data (the vault header).
func (k *Keys) Check(data []byte) []byte {
	mac := hmac.New(sha256.New, k.check)
	mac.Write(data)
	return mac.Sum(nil)
}

// VerifyCheck reports whether sum is the key check value of data.
func (k *Keys) VerifyCheck(data, sum []byte) bool {
	return hmac.Equal(k.Check(data), sum)
}

// Encryptor returns an encryptor bound to the encryption key.
func (k *Keys) Encryptor() *Encryptor {
	return NewEncryptor(k.enc)
}

// Destroy clears all key material from memory
func (k *Keys) Destroy() {
	ClearBytes(k.enc)
	ClearBytes(k.check)
}

// Encryptor provides authenticated encryption
type Encryptor struct {
	key []byte
}

// NewEncryptor creates a new encryptor with the given key
func NewEncryptor(key []byte) *Encryptor {
	return &Encryptor{
		key: key,
	}
}

func (e *Encryptor) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext with AES-256-GCM, authenticating additionalData.
// The result is nonce || ciphertext || tag.
func (e *Encryptor) Seal(plaintext, additionalData []byte) ([]byte, error) {
	gcm, err := e.aead()
	if err != nil {
		return nil, err
	}

	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	result := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	copy(result, nonce)
	return gcm.Seal(result, nonce, plaintext, additionalData), nil
}

// Open decrypts data produced by Seal. Any tampering with the ciphertext,
// the nonce or additionalData yields ErrAuthFailed.
func (e *Encryptor) Open(sealed, additionalData []byte) ([]byte, error) {
	if len(sealed) < NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	gcm, err := e.aead()
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, sealed[:NonceSize], sealed[NonceSize:], additionalData)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
