package transport

import "errors"

var (
	// ErrMessageTooLong is the value Encryptor.EncryptBuf panics with
	// when the caller violates the MaxMessageLen precondition. Encrypting an oversize payload is
	// a programming error, not an adversary-induced one, so it is never
	// returned as an error. See EncryptBuf.
	ErrMessageTooLong = errors.New("brontide: message exceeds max message length")

	// ErrOversizedResidue is returned when a Decryptor's read buffer
	// exceeds MaxPacketLen with no further frame extractable, a
	// protocol violation by the peer.
	ErrOversizedResidue = errors.New("brontide: residue exceeds max packet length")
)
