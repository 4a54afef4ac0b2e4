package crypto

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
)

// PrivateKeySize and CompressedPublicKeySize describe the raw and compressed
// secp256k1 key encodings used throughout the handshake wire format.
const (
	PrivateKeySize          = 32
	CompressedPublicKeySize = 33
)

// GeneratePrivateKey returns a fresh random secp256k1 private key,
// suitable for static or ephemeral key material.
func GeneratePrivateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// ParsePublicKey decodes a 33-byte compressed secp256k1 point. It
// returns ErrInvalidPublicKey (rather than the underlying parse error)
// so callers can match it against the handshake's error kinds.
func ParsePublicKey(compressed []byte) (*btcec.PublicKey, error) {
	if len(compressed) != CompressedPublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	pub, err := btcec.ParsePubKey(compressed)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return pub, nil
}

// SerializePublicKey returns the 33-byte compressed encoding of pub.
func SerializePublicKey(pub *btcec.PublicKey) []byte {
	return pub.SerializeCompressed()
}

// EcdhHash computes the BOLT-8 ECDH primitive: a secp256k1 scalar
// multiplication of priv against pub, serialized in 33-byte compressed
// form, hashed with SHA-256. This is the full-point hash used by the
// Lightning transport handshake, distinct from x-only ECDH schemes used
// elsewhere in the secp256k1 ecosystem.
func EcdhHash(priv *btcec.PrivateKey, pub *btcec.PublicKey) SymmetricKey {
	curve := btcec.S256()
	x, y := curve.ScalarMult(pub.X(), pub.Y(), priv.Serialize())

	var compressed [CompressedPublicKeySize]byte
	if y.Bit(0) == 0 {
		compressed[0] = 0x02
	} else {
		compressed[0] = 0x03
	}
	xBytes := x.Bytes()
	copy(compressed[CompressedPublicKeySize-len(xBytes):], xBytes)

	return sha256.Sum256(compressed[:])
}
