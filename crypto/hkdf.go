package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF5869 derives two 32-byte outputs from salt and ikm following
// RFC 5869 with SHA-256: PRK = HMAC(salt, ikm); out1 = HMAC(PRK, 0x01);
// out2 = HMAC(PRK, out1 || 0x02). golang.org/x/crypto/hkdf implements
// exactly this extract-then-expand construction, so out1/out2 are the
// first 64 bytes of its expand stream split in half. ikm may be empty;
// the final handshake key derivation calls this with a zero-length IKM.
func HKDF5869(salt SymmetricKey, ikm []byte) (out1, out2 SymmetricKey) {
	reader := hkdf.New(sha256.New, ikm, salt[:], nil)
	var buf [64]byte
	if _, err := io.ReadFull(reader, buf[:]); err != nil {
		// hkdf.New's Reader only fails once the expand limit
		// (255 * hash size) is exhausted; 64 bytes never hits it.
		panic("brontide: hkdf expand failed: " + err.Error())
	}
	copy(out1[:], buf[:32])
	copy(out2[:], buf[32:])
	return out1, out2
}
