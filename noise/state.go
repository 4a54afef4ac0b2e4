// Package noise implements the BOLT-8 three-act Noise_XK handshake that
// bootstraps a Lightning peer transport. It produces the raw directional
// keys and chaining key; wiring them into a usable cipher pair is the
// job of the root brontide package.
package noise

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"brontide/crypto"
)

// Act byte-lengths, per BOLT-8 §6.
const (
	Act1Size = 50 // version(1) + ephemeral pubkey(33) + tag(16)
	Act2Size = 50 // same layout, responder's ephemeral
	Act3Size = 66 // version(1) + encrypted static pubkey(33+16) + tag(16)
)

const handshakeVersion = 0x00

// Result carries the outputs of a completed handshake: the two
// directional keys, the final chaining key shared by both directions'
// rotation schedules, and the peer's recovered static public key.
type Result struct {
	SendKey      crypto.SymmetricKey
	RecvKey      crypto.SymmetricKey
	ChainKey     crypto.SymmetricKey
	RemoteStatic *btcec.PublicKey
}

// handshakeState is the sum-type tag shared by every state a Machine can
// be in. Each transition below consumes the previous state by value and
// installs a brand new one on the Machine, so a superseded state can
// never be acted on twice.
type handshakeState interface {
	handshakeState()
}

type initiatorAwaitingActOne struct {
	localStatic    *btcec.PrivateKey
	localEphemeral *btcec.PrivateKey
	remoteStatic   *btcec.PublicKey
}

type initiatorAwaitingActTwo struct {
	hs             *crypto.HandshakeHashState
	localStatic    *btcec.PrivateKey
	localEphemeral *btcec.PrivateKey
	remoteStatic   *btcec.PublicKey
}

type responderAwaitingActOne struct {
	hs             *crypto.HandshakeHashState
	localStatic    *btcec.PrivateKey
	localEphemeral *btcec.PrivateKey
}

type responderAwaitingActThree struct {
	hs              *crypto.HandshakeHashState
	localStatic     *btcec.PrivateKey
	localEphemeral  *btcec.PrivateKey
	remoteEphemeral *btcec.PublicKey
}

type completeState struct {
	result *Result
}

// failedState is the dedicated terminal state reached after any
// cryptographic or parse failure. Every call against a failed machine
// returns ErrHandshakeFailed rather than touching key material again.
// An embedder driving untrusted bytes off the wire must be able to
// reject a bad peer without aborting the process.
type failedState struct{}

func (initiatorAwaitingActOne) handshakeState()   {}
func (initiatorAwaitingActTwo) handshakeState()   {}
func (responderAwaitingActOne) handshakeState()   {}
func (responderAwaitingActThree) handshakeState() {}
func (completeState) handshakeState()             {}
func (failedState) handshakeState()               {}

// Role distinguishes which side of the handshake a Machine drives.
type Role uint8

const (
	RoleInitiator Role = iota
	RoleResponder
)

// Machine is the BOLT-8 handshake state machine. It is not safe for
// concurrent use; a single connection drives it from one goroutine.
type Machine struct {
	role  Role
	state handshakeState
	buf   []byte
}

// NewOutbound constructs a Machine for the initiating side of the
// handshake. SetUpOutbound must be called exactly once before any call
// to ProcessAct.
func NewOutbound(localStatic, localEphemeral *btcec.PrivateKey, remoteStatic *btcec.PublicKey) *Machine {
	return &Machine{
		role: RoleInitiator,
		state: initiatorAwaitingActOne{
			localStatic:    localStatic,
			localEphemeral: localEphemeral,
			remoteStatic:   remoteStatic,
		},
	}
}

// NewInbound constructs a Machine for the responding side of the
// handshake, ready to receive Act 1 via ProcessAct.
func NewInbound(localStatic, localEphemeral *btcec.PrivateKey) *Machine {
	hs := crypto.NewHandshakeHashState()
	hs.MixHash(crypto.SerializePublicKey(localStatic.PubKey()))
	return &Machine{
		role: RoleResponder,
		state: responderAwaitingActOne{
			hs:             hs,
			localStatic:    localStatic,
			localEphemeral: localEphemeral,
		},
	}
}

// SetUpOutbound produces Act 1. It is a programming error to call this on
// an inbound machine or more than once on the same machine.
func (m *Machine) SetUpOutbound() []byte {
	st, ok := m.state.(initiatorAwaitingActOne)
	if m.role != RoleInitiator || !ok {
		panic("noise: SetUpOutbound called on a machine not awaiting act one")
	}

	hs := crypto.NewHandshakeHashState()
	hs.MixHash(crypto.SerializePublicKey(st.remoteStatic))

	ePub := crypto.SerializePublicKey(st.localEphemeral.PubKey())
	hs.MixHash(ePub)

	es := crypto.EcdhHash(st.localEphemeral, st.remoteStatic)
	hs.MixKey(es)

	tag, err := hs.EncryptAndHash(nil)
	if err != nil {
		panic("noise: act one encryption failed: " + err.Error())
	}

	act1 := make([]byte, 0, Act1Size)
	act1 = append(act1, handshakeVersion)
	act1 = append(act1, ePub...)
	act1 = append(act1, tag...)

	m.state = initiatorAwaitingActTwo{
		hs:             hs,
		localStatic:    st.localStatic,
		localEphemeral: st.localEphemeral,
		remoteStatic:   st.remoteStatic,
	}
	return act1
}

// ProcessAct feeds newly received bytes into the machine. It buffers
// input internally, so callers may pass arbitrarily fragmented chunks;
// an act is only parsed once enough bytes have accumulated. It returns
// bytes to send back to the peer (if this act produces a reply), a
// non-nil Result once the handshake completes, and an error for any
// cryptographic or protocol failure. Once an error has been returned,
// every subsequent call returns ErrHandshakeFailed.
func (m *Machine) ProcessAct(data []byte) ([]byte, *Result, error) {
	if _, failed := m.state.(failedState); failed {
		return nil, nil, crypto.ErrHandshakeFailed
	}
	if m.role == RoleInitiator {
		if _, awaitingSetup := m.state.(initiatorAwaitingActOne); awaitingSetup {
			panic("noise: ProcessAct called before SetUpOutbound")
		}
	}
	if _, done := m.state.(completeState); done {
		panic("noise: ProcessAct called after handshake completion")
	}

	if len(data) > 0 {
		m.buf = append(m.buf, data...)
	}

	switch st := m.state.(type) {
	case initiatorAwaitingActTwo:
		if len(m.buf) < Act2Size {
			return nil, nil, nil
		}
		act3, result, err := processActTwo(st, m.buf[:Act2Size])
		if err != nil {
			m.state = failedState{}
			return nil, nil, err
		}
		m.consume(Act2Size)
		m.state = completeState{result}
		return act3, result, nil

	case responderAwaitingActOne:
		if len(m.buf) < Act1Size {
			return nil, nil, nil
		}
		act2, next, err := processActOne(st, m.buf[:Act1Size])
		if err != nil {
			m.state = failedState{}
			return nil, nil, err
		}
		m.consume(Act1Size)
		m.state = next
		return act2, nil, nil

	case responderAwaitingActThree:
		if len(m.buf) < Act3Size {
			return nil, nil, nil
		}
		result, err := processActThree(st, m.buf[:Act3Size])
		if err != nil {
			m.state = failedState{}
			return nil, nil, err
		}
		m.consume(Act3Size)
		m.state = completeState{result}
		return nil, result, nil

	default:
		panic("noise: ProcessAct called in an unreachable state")
	}
}

// consume drops the first n bytes of the accumulated buffer, keeping any
// residue that arrived alongside a complete act.
func (m *Machine) consume(n int) {
	rest := len(m.buf) - n
	if rest <= 0 {
		m.buf = nil
		return
	}
	m.buf = append(m.buf[:0], m.buf[n:]...)
}

// Residue returns and clears any bytes buffered beyond the final act.
// A peer may coalesce the first transport frames with Act 3 in one TCP
// segment; those bytes belong to the transport cipher, not the
// handshake, and the caller must hand them to its Decryptor.
func (m *Machine) Residue() []byte {
	res := m.buf
	m.buf = nil
	return res
}
