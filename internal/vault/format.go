package vault

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/illarion/credvault/internal/crypto"
)

// File layout, version 1:
//
//	magic      4   "CVLT"
//	version    1   FormatVersion
//	iterations 4   PBKDF2 iterations, big-endian
//	salt       16
//	check      32  HMAC-SHA256(check key, magic..salt)
//	sum        4   CRC-32 (IEEE) of magic..check, big-endian
//	nonce      12
//	sealed     n+16 AES-256-GCM ciphertext and tag
//
// magic..sum is the GCM additional data. The sum is verified before any key
// is derived, so a damaged header is reported as corruption rather than as
// a wrong passphrase.
const (
	FormatVersion byte = 1

	magicSize   = 4
	prefixSize  = magicSize + 1 + 4 + crypto.SaltSize
	checkEnd    = prefixSize + crypto.CheckSize
	sumSize     = 4
	headerSize  = checkEnd + sumSize
	minFileSize = headerSize + crypto.NonceSize + crypto.TagSize
)

var magic = []byte("CVLT")

// Header is the unencrypted part of a vault file.
type Header struct {
	Version    byte
	Iterations uint32
	Salt       []byte
	Check      []byte
	Size       int64
}

// prefix returns the bytes covered by the key check.
func (h *Header) prefix() []byte {
	buf := make([]byte, 0, prefixSize)
	buf = append(buf, magic...)
	buf = append(buf, h.Version)
	buf = binary.BigEndian.AppendUint32(buf, h.Iterations)
	buf = append(buf, h.Salt...)
	return buf
}

// bytes returns the full encoded header, used as additional data.
func (h *Header) bytes() []byte {
	buf := append(h.prefix(), h.Check...)
	return binary.BigEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))
}

// parseHeader splits a raw vault image into header and sealed payload.
func parseHeader(data []byte) (*Header, []byte, error) {
	if len(data) < minFileSize {
		return nil, nil, fmt.Errorf("%w: file too short (%d bytes)", ErrVaultCorrupted, len(data))
	}
	if !bytes.Equal(data[:magicSize], magic) {
		return nil, nil, fmt.Errorf("%w: bad magic", ErrVaultCorrupted)
	}
	if crc32.ChecksumIEEE(data[:checkEnd]) != binary.BigEndian.Uint32(data[checkEnd:headerSize]) {
		return nil, nil, fmt.Errorf("%w: header checksum mismatch", ErrVaultCorrupted)
	}

	h := &Header{
		Version: data[magicSize],
		Size:    int64(len(data)),
	}
	if h.Version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: unsupported format version %d", ErrVaultCorrupted, h.Version)
	}

	h.Iterations = binary.BigEndian.Uint32(data[magicSize+1:])
	if h.Iterations == 0 {
		return nil, nil, fmt.Errorf("%w: zero iterations", ErrVaultCorrupted)
	}

	h.Salt = append([]byte(nil), data[magicSize+5:prefixSize]...)
	h.Check = append([]byte(nil), data[prefixSize:checkEnd]...)

	return h, data[headerSize:], nil
}

// newHeader creates a header for a fresh key generation.
func newHeader(kdf *crypto.KDF, keys *crypto.Keys) *Header {
	h := &Header{
		Version:    FormatVersion,
		Iterations: uint32(kdf.Iterations),
		Salt:       kdf.Salt,
	}
	h.Check = keys.Check(h.prefix())
	return h
}

// Inspect reads the unencrypted header of the vault at path.
// No passphrase is needed; nothing about the entries is revealed.
func Inspect(path string) (*Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}

	h, _, err := parseHeader(data)
	return h, err
}
