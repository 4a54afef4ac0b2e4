package crypto

import "errors"

// Sentinel error kinds. Adversary-induced failures are returned through
// these so callers can distinguish them with errors.Is; caller misuse is
// a programming error and panics instead (see noise.Machine and
// transport.Encryptor).
var (
	// ErrInvalidHMAC is returned when AEAD tag verification fails during
	// handshake or transport decryption. Terminal for the connection.
	ErrInvalidHMAC = errors.New("brontide: invalid hmac")

	// ErrUnknownVersion is returned when a handshake act carries a
	// version byte other than 0x00.
	ErrUnknownVersion = errors.New("brontide: unknown handshake version")

	// ErrInvalidPublicKey is returned when a 33-byte compressed
	// secp256k1 point fails to parse.
	ErrInvalidPublicKey = errors.New("brontide: invalid public key")

	// ErrHandshakeFailed is returned by every ProcessAct call made
	// against a handshake state machine that has already failed once.
	ErrHandshakeFailed = errors.New("brontide: handshake already failed")
)
