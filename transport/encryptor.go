package transport

import (
	"encoding/binary"

	"brontide/crypto"
)

// MaxMessageLen is the largest payload EncryptBuf accepts.
const MaxMessageLen = 65535

// MessageLengthHeaderSize is the plaintext length prefix size.
const MessageLengthHeaderSize = 2

// TaggedLengthHeaderSize is the encrypted length header on the wire.
const TaggedLengthHeaderSize = MessageLengthHeaderSize + crypto.TagSize

// MaxPacketLen is the largest single frame: tagged length header plus
// the largest possible tagged body.
const MaxPacketLen = TaggedLengthHeaderSize + crypto.TagSize + MaxMessageLen

// Encryptor owns the sending direction of a completed handshake. It
// outlives the connection it was created for and performs no I/O of its
// own; callers are responsible for writing EncryptBuf's output to the
// wire.
type Encryptor struct {
	state *directionalCipherState
}

// NewEncryptor constructs an Encryptor from a handshake's derived
// sending key and final chaining key.
func NewEncryptor(sendKey, chainingKey crypto.SymmetricKey) *Encryptor {
	return &Encryptor{state: newDirectionalCipherState(sendKey, chainingKey)}
}

// EncryptBuf frames and encrypts buffer, returning
// AEAD(len) || AEAD(buffer) under two consecutive nonces. Calling this
// with a payload longer than MaxMessageLen is a programming error and
// panics rather than returning an error, since silently truncating or
// refusing would otherwise invite a caller to retry with a shifted nonce.
func (e *Encryptor) EncryptBuf(buffer []byte) ([]byte, error) {
	if len(buffer) > MaxMessageLen {
		panic(ErrMessageTooLong)
	}

	out := make([]byte, 0, TaggedLengthHeaderSize+len(buffer)+crypto.TagSize)

	var lengthBytes [MessageLengthHeaderSize]byte
	binary.BigEndian.PutUint16(lengthBytes[:], uint16(len(buffer)))

	out, err := crypto.Encrypt(out, e.state.key, uint64(e.state.nonce), nil, lengthBytes[:])
	if err != nil {
		return nil, err
	}
	e.state.advance()

	out, err = crypto.Encrypt(out, e.state.key, uint64(e.state.nonce), nil, buffer)
	if err != nil {
		return nil, err
	}
	e.state.advance()

	return out, nil
}
