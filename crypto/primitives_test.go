package crypto

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	var key SymmetricKey
	copy(key[:], bytes.Repeat([]byte{0x07}, 32))

	plaintext := []byte("hello lightning")
	ciphertext, err := Encrypt(nil, key, 0, []byte("ad"), plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(ciphertext) != len(plaintext)+TagSize {
		t.Fatalf("ciphertext length = %d, want %d", len(ciphertext), len(plaintext)+TagSize)
	}

	got, err := Decrypt(nil, key, 0, []byte("ad"), ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("decrypted = %q, want %q", got, plaintext)
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	var key SymmetricKey
	ciphertext, err := Encrypt(nil, key, 5, nil, []byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	ciphertext[0] ^= 0xFF

	if _, err := Decrypt(nil, key, 5, nil, ciphertext); err != ErrInvalidHMAC {
		t.Fatalf("Decrypt error = %v, want ErrInvalidHMAC", err)
	}
}

func TestDecryptRejectsWrongNonce(t *testing.T) {
	var key SymmetricKey
	ciphertext, err := Encrypt(nil, key, 1, nil, []byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(nil, key, 2, nil, ciphertext); err != ErrInvalidHMAC {
		t.Fatalf("Decrypt error = %v, want ErrInvalidHMAC", err)
	}
}

func TestHKDF5869IsDeterministic(t *testing.T) {
	var salt SymmetricKey
	copy(salt[:], bytes.Repeat([]byte{0x01}, 32))
	ikm := []byte("input key material")

	out1a, out2a := HKDF5869(salt, ikm)
	out1b, out2b := HKDF5869(salt, ikm)
	if out1a != out1b || out2a != out2b {
		t.Fatal("HKDF5869 is not deterministic for identical inputs")
	}
	if out1a == out2a {
		t.Fatal("HKDF5869 outputs must differ")
	}
}

func TestHKDF5869AcceptsEmptyIKM(t *testing.T) {
	var salt SymmetricKey
	copy(salt[:], bytes.Repeat([]byte{0x02}, 32))

	out1, out2 := HKDF5869(salt, nil)
	var zero SymmetricKey
	if out1 == zero || out2 == zero {
		t.Fatal("HKDF5869 with empty IKM produced a zero output")
	}
}

func TestEcdhHashIsSymmetric(t *testing.T) {
	alicePriv, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	bobPriv, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}

	shared1 := EcdhHash(alicePriv, bobPriv.PubKey())
	shared2 := EcdhHash(bobPriv, alicePriv.PubKey())
	if shared1 != shared2 {
		t.Fatal("ECDH shared secret is not symmetric")
	}
}

func TestParsePublicKeyRoundTrip(t *testing.T) {
	priv, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	serialized := SerializePublicKey(priv.PubKey())
	if len(serialized) != CompressedPublicKeySize {
		t.Fatalf("serialized length = %d, want %d", len(serialized), CompressedPublicKeySize)
	}

	parsed, err := ParsePublicKey(serialized)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if !bytes.Equal(SerializePublicKey(parsed), serialized) {
		t.Fatal("parsed public key does not round-trip")
	}
}

func TestParsePublicKeyRejectsBadInput(t *testing.T) {
	if _, err := ParsePublicKey(bytes.Repeat([]byte{0xFF}, 33)); err != ErrInvalidPublicKey {
		t.Fatalf("err = %v, want ErrInvalidPublicKey", err)
	}
	if _, err := ParsePublicKey([]byte{0x02, 0x03}); err != ErrInvalidPublicKey {
		t.Fatalf("err = %v, want ErrInvalidPublicKey", err)
	}
}
