// Package brontide implements the BOLT-8 Lightning Network peer
// transport: a Noise_XK handshake bootstrapping a framed, rotating
// ChaCha20-Poly1305 transport cipher. It accepts and emits opaque byte
// slices; socket I/O, the Lightning message layer above it, peer
// management, and persistence are all the caller's responsibility.
package brontide

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"brontide/noise"
	"brontide/transport"
)

// CompletedHandshake carries the outputs of a finished handshake: a
// ready-to-use Encryptor/Decryptor pair for the transport cipher, and
// the peer's recovered static public key. It is produced exactly once,
// by whichever ProcessAct call finishes the exchange.
type CompletedHandshake struct {
	Encryptor        *transport.Encryptor
	Decryptor        *transport.Decryptor
	PeerStaticPubKey *btcec.PublicKey
}

// Handshake drives the three-act Noise_XK exchange for one connection.
// It is not safe for concurrent use.
type Handshake struct {
	machine *noise.Machine
}

// NewOutbound constructs a Handshake for the connecting side, given the
// local node's long-term static key, the known static key of the peer
// being dialed, and a fresh ephemeral key for this session. Call
// SetUpOutbound to obtain Act 1 before calling ProcessAct.
func NewOutbound(localStatic, localEphemeral *btcec.PrivateKey, remoteStatic *btcec.PublicKey) *Handshake {
	return &Handshake{machine: noise.NewOutbound(localStatic, localEphemeral, remoteStatic)}
}

// NewInbound constructs a Handshake for the accepting side, given the
// local node's long-term static key and a fresh ephemeral key for this
// session. Feed incoming bytes directly to ProcessAct.
func NewInbound(localStatic, localEphemeral *btcec.PrivateKey) *Handshake {
	return &Handshake{machine: noise.NewInbound(localStatic, localEphemeral)}
}

// SetUpOutbound produces Act 1. Valid only on a Handshake created with
// NewOutbound, and only once. Calling it twice, or on an inbound
// Handshake, is a programming error and panics.
func (h *Handshake) SetUpOutbound() []byte {
	return h.machine.SetUpOutbound()
}

// ProcessAct feeds newly received handshake bytes in. It returns bytes
// to send back to the peer (if any), a CompletedHandshake once the
// exchange finishes, and an error for any cryptographic or protocol
// failure. Fragmented input is handled internally: callers may pass
// partial acts across multiple calls.
func (h *Handshake) ProcessAct(data []byte) ([]byte, *CompletedHandshake, error) {
	toSend, result, err := h.machine.ProcessAct(data)
	if err != nil {
		return nil, nil, err
	}
	if result == nil {
		return toSend, nil, nil
	}

	completed := &CompletedHandshake{
		Encryptor:        transport.NewEncryptor(result.SendKey, result.ChainKey),
		Decryptor:        transport.NewDecryptor(result.RecvKey, result.ChainKey),
		PeerStaticPubKey: result.RemoteStatic,
	}

	// The peer may coalesce its first transport frames with the final
	// act in a single segment. Those trailing bytes belong to the
	// transport stream, so feed them straight into the new Decryptor.
	if residue := h.machine.Residue(); len(residue) > 0 {
		if err := completed.Decryptor.Read(residue); err != nil {
			return nil, nil, err
		}
	}
	return toSend, completed, nil
}
