package crypto

import "crypto/sha256"

// protocolName and prologue are the fixed BOLT-8 handshake constants.
const (
	protocolName = "Noise_XK_secp256k1_ChaChaPoly_SHA256"
	prologue     = "lightning"
)

// HandshakeHashState is the rolling Noise symmetric state carried across
// all three acts: a running transcript hash h, a chaining key ck used as
// the HKDF salt for every key derivation, and the current AEAD key k used
// by encryptAndHash/decryptAndHash. Every handshake AEAD operation uses
// nonce zero because mixKey replaces k immediately after each use.
type HandshakeHashState struct {
	h  SymmetricKey
	ck SymmetricKey
	k  SymmetricKey
}

// NewHandshakeHashState initializes h = SHA256(protocolName), ck = h,
// then mixes in the "lightning" prologue.
func NewHandshakeHashState() *HandshakeHashState {
	hs := &HandshakeHashState{
		h: sha256.Sum256([]byte(protocolName)),
	}
	hs.ck = hs.h
	hs.MixHash([]byte(prologue))
	return hs
}

// MixHash folds data into the transcript hash: h := SHA256(h || data).
func (hs *HandshakeHashState) MixHash(data []byte) {
	buf := make([]byte, 0, len(hs.h)+len(data))
	buf = append(buf, hs.h[:]...)
	buf = append(buf, data...)
	hs.h = sha256.Sum256(buf)
}

// MixKey derives a new chaining key and temporary AEAD key from the
// current chaining key and the supplied input key material (typically an
// ECDH output), replacing both ck and k.
func (hs *HandshakeHashState) MixKey(inputKeyMaterial SymmetricKey) {
	ck, k := HKDF5869(hs.ck, inputKeyMaterial[:])
	hs.ck = ck
	hs.k = k
}

// EncryptAndHash encrypts plaintext under the current key k with nonce
// zero and the transcript hash as associated data, then folds the
// resulting ciphertext into the transcript.
func (hs *HandshakeHashState) EncryptAndHash(plaintext []byte) ([]byte, error) {
	ciphertext, err := Encrypt(nil, hs.k, 0, hs.h[:], plaintext)
	if err != nil {
		return nil, err
	}
	hs.MixHash(ciphertext)
	return ciphertext, nil
}

// DecryptAndHash decrypts ciphertext under the current key k with nonce
// zero and the transcript hash as associated data, then folds the
// ciphertext (not the plaintext) into the transcript.
func (hs *HandshakeHashState) DecryptAndHash(ciphertext []byte) ([]byte, error) {
	plaintext, err := Decrypt(nil, hs.k, 0, hs.h[:], ciphertext)
	if err != nil {
		return nil, err
	}
	hs.MixHash(ciphertext)
	return plaintext, nil
}

// ChainingKey returns the current chaining key, used once the handshake
// completes to derive the final directional transport keys.
func (hs *HandshakeHashState) ChainingKey() SymmetricKey {
	return hs.ck
}
