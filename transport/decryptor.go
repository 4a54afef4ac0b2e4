package transport

import (
	"encoding/binary"

	"brontide/crypto"
)

// Decryptor owns the receiving direction of a completed handshake. It
// reassembles an arbitrarily fragmented byte stream into whole
// plaintext payloads, draining them through NextPayload in the order
// they were received. It performs no I/O of its own.
type Decryptor struct {
	state *directionalCipherState

	readBuffer []byte

	hasPendingLength bool
	pendingLength    uint16

	payloads [][]byte
}

// NewDecryptor constructs a Decryptor from a handshake's derived
// receiving key and final chaining key.
func NewDecryptor(recvKey, chainingKey crypto.SymmetricKey) *Decryptor {
	return &Decryptor{state: newDirectionalCipherState(recvKey, chainingKey)}
}

// Read appends data to the internal residue and drives the extraction
// loop until no further complete frame is available, leaving whatever
// remains in the residue for the next call. Any AEAD failure is
// propagated and leaves the Decryptor in an unspecified, non-panicking
// state, and the caller must drop the connection.
//
// When the residue is empty, Read decrypts directly against the
// caller's slice instead of copying it in first, so the common case of
// one Read per complete frame allocates nothing for the residue.
func (d *Decryptor) Read(data []byte) error {
	fastPath := len(d.readBuffer) == 0

	var buf []byte
	if fastPath {
		buf = data
	} else {
		d.readBuffer = append(d.readBuffer, data...)
		buf = d.readBuffer
	}

	pos := 0
	for {
		payload, consumed, err := d.decryptNext(buf[pos:])
		if err != nil {
			return err
		}
		if consumed == 0 {
			break
		}
		// A non-zero consumed count always means a whole frame was
		// decoded, so the payload is enqueued even when it is empty.
		pos += consumed
		d.payloads = append(d.payloads, payload)
	}

	residue := buf[pos:]
	if fastPath {
		if len(residue) == 0 {
			d.readBuffer = nil
		} else {
			d.readBuffer = append([]byte(nil), residue...)
		}
	} else {
		d.readBuffer = append(d.readBuffer[:0], residue...)
	}

	if len(d.readBuffer) > MaxPacketLen {
		return ErrOversizedResidue
	}
	return nil
}

// decryptNext implements the two-phase frame decode: length header
// first, then body. slice always begins at the start of the current frame,
// whether or not its length header has already been decrypted: when
// only the header is available, the nonce for it is still consumed (and
// remembered via hasPendingLength) but bytes_consumed is reported as
// zero, so the caller keeps presenting the same header bytes on the
// next call rather than re-decrypting them.
func (d *Decryptor) decryptNext(slice []byte) ([]byte, int, error) {
	if !d.hasPendingLength {
		if len(slice) < TaggedLengthHeaderSize {
			return nil, 0, nil
		}
		lengthBytes, err := crypto.Decrypt(nil, d.state.key, uint64(d.state.nonce), nil, slice[:TaggedLengthHeaderSize])
		if err != nil {
			return nil, 0, err
		}
		d.state.advance()
		d.pendingLength = binary.BigEndian.Uint16(lengthBytes)
		d.hasPendingLength = true
	}

	end := TaggedLengthHeaderSize + int(d.pendingLength) + crypto.TagSize
	if len(slice) < end {
		return nil, 0, nil
	}

	body := slice[TaggedLengthHeaderSize:end]
	plaintext, err := crypto.Decrypt(nil, d.state.key, uint64(d.state.nonce), nil, body)
	if err != nil {
		return nil, 0, err
	}
	d.state.advance()
	d.hasPendingLength = false

	// A zero-length plaintext opens to a nil slice; hand back a non-nil
	// empty payload so presence is never keyed off emptiness.
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, end, nil
}

// NextPayload pops the oldest decrypted payload off the queue. It
// returns false once the queue is empty.
func (d *Decryptor) NextPayload() ([]byte, bool) {
	if len(d.payloads) == 0 {
		return nil, false
	}
	p := d.payloads[0]
	d.payloads[0] = nil
	d.payloads = d.payloads[1:]
	return p, true
}
