package crypto

import (
	"bytes"
	"errors"
	"testing"
)

const testIters = 1000

func TestDeriveKeysDeterministic(t *testing.T) {
	kdf, err := NewKDF(testIters)
	if err != nil {
		t.Fatalf("NewKDF failed: %v", err)
	}
	if len(kdf.Salt) != SaltSize {
		t.Fatalf("salt size = %d, want %d", len(kdf.Salt), SaltSize)
	}

	k1 := kdf.DeriveKeys([]byte("correct-horse"))
	k2 := kdf.DeriveKeys([]byte("correct-horse"))
	header := []byte("header")

	if !bytes.Equal(k1.Check(header), k2.Check(header)) {
		t.Error("same passphrase and salt should produce the same key check")
	}

	k3 := kdf.DeriveKeys([]byte("wrong"))
	if k3.VerifyCheck(header, k1.Check(header)) {
		t.Error("different passphrase should not verify")
	}
}

func TestNewKDFDefaultIterations(t *testing.T) {
	kdf, err := NewKDF(0)
	if err != nil {
		t.Fatalf("NewKDF failed: %v", err)
	}
	if kdf.Iterations != DefaultIters {
		t.Errorf("iterations = %d, want %d", kdf.Iterations, DefaultIters)
	}
}

func TestSealOpen(t *testing.T) {
	kdf, _ := NewKDF(testIters)
	keys := kdf.DeriveKeys([]byte("pw"))
	defer keys.Destroy()
	enc := keys.Encryptor()

	aad := []byte("aad")
	plaintext := []byte(`{"smtp_password":"hunter2"}`)

	sealed, err := enc.Seal(plaintext, aad)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if len(sealed) != NonceSize+len(plaintext)+TagSize {
		t.Errorf("sealed length = %d", len(sealed))
	}

	got, err := enc.Open(sealed, aad)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Open = %q, want %q", got, plaintext)
	}

	if _, err := enc.Open(sealed, []byte("other")); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Open with wrong aad = %v, want ErrAuthFailed", err)
	}

	sealed[len(sealed)-1] ^= 0xff
	if _, err := enc.Open(sealed, aad); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Open of tampered data = %v, want ErrAuthFailed", err)
	}

	if _, err := enc.Open(sealed[:NonceSize], aad); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("Open of short data = %v, want ErrInvalidCiphertext", err)
	}
}

func TestSealUsesFreshNonce(t *testing.T) {
	kdf, _ := NewKDF(testIters)
	enc := kdf.DeriveKeys([]byte("pw")).Encryptor()

	a, _ := enc.Seal([]byte("same"), nil)
	b, _ := enc.Seal([]byte("same"), nil)
	if bytes.Equal(a[:NonceSize], b[:NonceSize]) {
		t.Error("two encryptions reused a nonce")
	}
}

func TestDestroyClearsKeys(t *testing.T) {
	kdf, _ := NewKDF(testIters)
	keys := kdf.DeriveKeys([]byte("pw"))
	keys.Destroy()

	for _, b := range append(append([]byte{}, keys.enc...), keys.check...) {
		if b != 0 {
			t.Fatal("key material not cleared")
		}
	}
}
