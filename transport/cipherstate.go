// Package transport implements the BOLT-8 post-handshake authenticated
// encryption pipeline: per-direction ChaCha20-Poly1305 framing with
// nonce sequencing and deterministic key rotation every 1000 AEAD
// operations per direction (every 500 framed messages, since each frame
// uses two nonces).
package transport

import "brontide/crypto"

// KeyRotationIndex is the nonce count at which a directional cipher
// state rotates its key via HKDF(chaining_key, key).
const KeyRotationIndex = 1000

// directionalCipherState is one direction (send or receive) of a
// completed handshake's symmetric transport cipher. It is mutated only
// by its owning Encryptor or Decryptor; the two directions never share
// a reference after the handshake completes.
type directionalCipherState struct {
	key         crypto.SymmetricKey
	chainingKey crypto.SymmetricKey
	nonce       uint32
}

func newDirectionalCipherState(key, chainingKey crypto.SymmetricKey) *directionalCipherState {
	return &directionalCipherState{key: key, chainingKey: chainingKey}
}

// advance runs the single increment-and-maybe-rotate step that follows
// every AEAD operation: nonce++, and if nonce has reached
// KeyRotationIndex, derive a fresh (chainingKey, key) pair via HKDF and
// reset nonce to zero. It is infallible and runs exactly once per
// successful encrypt or decrypt; a failed AEAD never advances the nonce.
func (d *directionalCipherState) advance() {
	d.nonce++
	if d.nonce == KeyRotationIndex {
		ck, k := crypto.HKDF5869(d.chainingKey, d.key[:])
		d.chainingKey = ck
		d.key = k
		d.nonce = 0
	}
}
