package crypto

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// SymmetricKey is a fixed-size key shared by the AEAD, HKDF, and ECDH
// primitives throughout the handshake and transport.
type SymmetricKey [32]byte

// TagSize is the ChaCha20-Poly1305 authentication tag size in bytes.
const TagSize = 16

// aeadNonce serializes a 64-bit little-endian counter into the 12-byte
// ChaCha20-Poly1305 nonce with the high 32 bits zeroed, per BOLT-8.
func aeadNonce(counter uint64) [chacha20poly1305.NonceSize]byte {
	var nonce [chacha20poly1305.NonceSize]byte
	binary.LittleEndian.PutUint64(nonce[4:], counter)
	return nonce
}

// Encrypt seals plaintext under key using the given 64-bit nonce and
// associated data, appending it to dst. The result is len(plaintext)+16
// bytes longer than dst's original length.
func Encrypt(dst []byte, key SymmetricKey, nonce uint64, ad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("brontide: init aead: %w", err)
	}
	n := aeadNonce(nonce)
	return aead.Seal(dst, n[:], plaintext, ad), nil
}

// Decrypt opens ciphertext (which must include its trailing 16-byte tag)
// under key, nonce, and associated data, appending the plaintext to dst.
// It returns ErrInvalidHMAC on authentication failure.
func Decrypt(dst []byte, key SymmetricKey, nonce uint64, ad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("brontide: init aead: %w", err)
	}
	n := aeadNonce(nonce)
	out, err := aead.Open(dst, n[:], ciphertext, ad)
	if err != nil {
		return nil, ErrInvalidHMAC
	}
	return out, nil
}
