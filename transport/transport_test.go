package transport

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"brontide/crypto"
)

func mustKey(t *testing.T, hexStr string) crypto.SymmetricKey {
	t.Helper()
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		t.Fatalf("decoding %q: %v", hexStr, err)
	}
	if len(raw) != 32 {
		t.Fatalf("key %q is %d bytes, want 32", hexStr, len(raw))
	}
	var k crypto.SymmetricKey
	copy(k[:], raw)
	return k
}

// Fixed keys from the BOLT-8 key-rotation test vector.
const (
	vectorCK = "919219dbb2920afa8db80f9a51787a840bcf111ed8d588caf9ab4be716e42b01"
	vectorSK = "969ab31b4d288cedf6218839b27a3e2140827047f2c0f01bf5c04435d43511a9"
	vectorRK = "bb9020b8965f4df047e07f955f3c4b88418984aadc5cdb35096b9ea8fa5c3442"
)

func newVectorPair(t *testing.T) (*Encryptor, *Decryptor) {
	t.Helper()
	ck := mustKey(t, vectorCK)
	sk := mustKey(t, vectorSK)
	// The peer's decryptor receives under the sender's key, so both
	// halves of the pair are built from vectorSK.
	return NewEncryptor(sk, ck), NewDecryptor(sk, ck)
}

func TestEmptyMessageRoundTrip(t *testing.T) {
	enc, dec := newVectorPair(t)

	ciphertext, err := enc.EncryptBuf(nil)
	if err != nil {
		t.Fatalf("EncryptBuf: %v", err)
	}
	if len(ciphertext) != 34 {
		t.Fatalf("ciphertext length = %d, want 34", len(ciphertext))
	}

	if err := dec.Read(ciphertext); err != nil {
		t.Fatalf("Read: %v", err)
	}
	payload, ok := dec.NextPayload()
	if !ok {
		t.Fatal("expected a payload")
	}
	if len(payload) != 0 {
		t.Fatalf("payload = %x, want empty", payload)
	}
}

func TestFirstTwoCiphertextsMatchVector(t *testing.T) {
	enc, _ := newVectorPair(t)
	plaintext := []byte("hello")

	want0, _ := hex.DecodeString("cf2b30ddf0cf3f80e7c35a6e6730b59fe802473180f396d88a8fb0db8cbcf25d2f214cf9ea1d95")
	want1, _ := hex.DecodeString("72887022101f0b6753e0c7de21657d35a4cb2a1f5cde2650528bbc8f837d0f0d7ad833b1a256a1")

	got0, err := enc.EncryptBuf(plaintext)
	if err != nil {
		t.Fatalf("EncryptBuf(0): %v", err)
	}
	if !bytes.Equal(got0, want0) {
		t.Fatalf("ciphertext 0 = %x, want %x", got0, want0)
	}

	got1, err := enc.EncryptBuf(plaintext)
	if err != nil {
		t.Fatalf("EncryptBuf(1): %v", err)
	}
	if !bytes.Equal(got1, want1) {
		t.Fatalf("ciphertext 1 = %x, want %x", got1, want1)
	}
}

func TestKeyRotationVector(t *testing.T) {
	enc, _ := newVectorPair(t)
	plaintext := []byte("hello")

	want := map[int]string{
		500:  "178cb9d7387190fa34db9c2d50027d21793c9bc2d40b1e14dcf30ebeeeb220f48364f7a4c68bf8",
		501:  "1b186c57d44eb6de4c057c49940d79bb838a145cb528d6e8fd26dbe50a60ca2c104b56b60e45bd",
		1000: "4a2f3cc3b5e78ddb83dcb426d9863d9d9a723b0337c89dd0b005d89f8d3c05c52b76b29b740f09",
		1001: "2ecd8c8a5629d0d02ab457a0fdd0f7b90a192cd46be5ecb6ca570bfc5e268338b1a16cf4ef2d36",
	}

	for i := 0; i < 1002; i++ {
		got, err := enc.EncryptBuf(plaintext)
		if err != nil {
			t.Fatalf("EncryptBuf(%d): %v", i, err)
		}
		if hexWant, ok := want[i]; ok {
			wantBytes, _ := hex.DecodeString(hexWant)
			if !bytes.Equal(got, wantBytes) {
				t.Fatalf("ciphertext %d = %x, want %x", i, got, wantBytes)
			}
		}
	}
}

func TestDecryptRotationMatchesEncrypt(t *testing.T) {
	enc, dec := newVectorPair(t)
	plaintext := []byte("hello")

	for i := 0; i < 1500; i++ {
		ciphertext, err := enc.EncryptBuf(plaintext)
		if err != nil {
			t.Fatalf("EncryptBuf(%d): %v", i, err)
		}
		if err := dec.Read(ciphertext); err != nil {
			t.Fatalf("Read(%d): %v", i, err)
		}
		payload, ok := dec.NextPayload()
		if !ok {
			t.Fatalf("message %d: expected payload", i)
		}
		if !bytes.Equal(payload, plaintext) {
			t.Fatalf("message %d: payload = %q, want %q", i, payload, plaintext)
		}
	}
}

func TestFragmentedRead(t *testing.T) {
	enc, _ := newVectorPair(t)
	ciphertext, err := enc.EncryptBuf([]byte{1})
	if err != nil {
		t.Fatalf("EncryptBuf: %v", err)
	}

	cases := []int{1, 20}
	for _, split := range cases {
		_, dec := newVectorPair(t)
		if err := dec.Read(ciphertext[:split]); err != nil {
			t.Fatalf("split %d: first Read: %v", split, err)
		}
		if _, ok := dec.NextPayload(); ok {
			t.Fatalf("split %d: payload available before full frame", split)
		}
		if err := dec.Read(ciphertext[split:]); err != nil {
			t.Fatalf("split %d: second Read: %v", split, err)
		}
		payload, ok := dec.NextPayload()
		if !ok {
			t.Fatalf("split %d: expected payload", split)
		}
		if !bytes.Equal(payload, []byte{1}) {
			t.Fatalf("split %d: payload = %x, want 01", split, payload)
		}
	}
}

func TestFragmentationIsPartitionInvariant(t *testing.T) {
	enc, _ := newVectorPair(t)
	var full []byte
	var plaintexts [][]byte
	for i := 0; i < 5; i++ {
		p := bytes.Repeat([]byte{byte(i)}, i+1)
		plaintexts = append(plaintexts, p)
		c, err := enc.EncryptBuf(p)
		if err != nil {
			t.Fatalf("EncryptBuf(%d): %v", i, err)
		}
		full = append(full, c...)
	}

	partitions := [][]int{
		{len(full)},
		{1, len(full) - 1},
		{10, 10, len(full) - 20},
		{2, 3, 5, 7, 11, 13},
	}

	for _, sizes := range partitions {
		_, dec := newVectorPair(t)
		offset := 0
		for _, size := range sizes {
			end := offset + size
			if end > len(full) {
				end = len(full)
			}
			if offset >= end {
				continue
			}
			if err := dec.Read(full[offset:end]); err != nil {
				t.Fatalf("partition %v: Read: %v", sizes, err)
			}
			offset = end
		}
		if offset < len(full) {
			if err := dec.Read(full[offset:]); err != nil {
				t.Fatalf("partition %v: final Read: %v", sizes, err)
			}
		}

		for i, want := range plaintexts {
			got, ok := dec.NextPayload()
			if !ok {
				t.Fatalf("partition %v: missing payload %d", sizes, i)
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("partition %v: payload %d = %x, want %x", sizes, i, got, want)
			}
		}
		if _, ok := dec.NextPayload(); ok {
			t.Fatalf("partition %v: extra payload present", sizes)
		}
	}
}

func TestTamperedKeyFailsAuthentication(t *testing.T) {
	enc, _ := newVectorPair(t)
	ciphertext, err := enc.EncryptBuf([]byte("hello"))
	if err != nil {
		t.Fatalf("EncryptBuf: %v", err)
	}

	ck := mustKey(t, vectorCK)
	var zeroKey crypto.SymmetricKey
	dec := NewDecryptor(zeroKey, ck)
	if err := dec.Read(ciphertext); !errors.Is(err, crypto.ErrInvalidHMAC) {
		t.Fatalf("err = %v, want ErrInvalidHMAC", err)
	}
}

func TestBitFlipCausesAuthenticationFailure(t *testing.T) {
	enc, _ := newVectorPair(t)
	c0, err := enc.EncryptBuf([]byte("hello"))
	if err != nil {
		t.Fatalf("EncryptBuf(0): %v", err)
	}
	c1, err := enc.EncryptBuf([]byte("hello"))
	if err != nil {
		t.Fatalf("EncryptBuf(1): %v", err)
	}

	tampered := append([]byte(nil), c1...)
	tampered[0] ^= 0x01

	_, dec := newVectorPair(t)
	if err := dec.Read(c0); err != nil {
		t.Fatalf("Read(0): %v", err)
	}
	if _, ok := dec.NextPayload(); !ok {
		t.Fatal("expected first payload")
	}

	if err := dec.Read(tampered); !errors.Is(err, crypto.ErrInvalidHMAC) {
		t.Fatalf("err = %v, want ErrInvalidHMAC", err)
	}
}

func TestEncryptBufOversizePanics(t *testing.T) {
	enc, _ := newVectorPair(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for oversize payload")
		}
	}()
	_, _ = enc.EncryptBuf(make([]byte, MaxMessageLen+1))
}

func TestTwoMaxSizeFramesSplitRead(t *testing.T) {
	enc, dec := newVectorPair(t)

	p0 := bytes.Repeat([]byte{0xAA}, MaxMessageLen)
	p1 := bytes.Repeat([]byte{0xBB}, MaxMessageLen)

	c0, err := enc.EncryptBuf(p0)
	if err != nil {
		t.Fatalf("EncryptBuf(0): %v", err)
	}
	c1, err := enc.EncryptBuf(p1)
	if err != nil {
		t.Fatalf("EncryptBuf(1): %v", err)
	}
	full := append(append([]byte(nil), c0...), c1...)
	if len(c0) != MaxPacketLen || len(c1) != MaxPacketLen {
		t.Fatalf("frame sizes %d/%d, want %d", len(c0), len(c1), MaxPacketLen)
	}

	// Withhold the last byte of the first frame, so nothing is
	// extractable yet and the residue sits just under MaxPacketLen.
	split := len(c0) - 1
	if err := dec.Read(full[:split]); err != nil {
		t.Fatalf("first Read: %v", err)
	}
	if _, ok := dec.NextPayload(); ok {
		t.Fatal("no payload should be extractable yet")
	}

	// Deliver the rest of frame 0 concatenated with all of frame 1 in a
	// single call: the working buffer momentarily holds close to two
	// full frames (comfortably over MaxPacketLen) before the extraction
	// loop drains both frames down to an empty residue.
	if err := dec.Read(full[split:]); err != nil {
		t.Fatalf("second Read: %v", err)
	}
	payload0, ok := dec.NextPayload()
	if !ok || !bytes.Equal(payload0, p0) {
		t.Fatalf("payload 0 missing or mismatched")
	}
	payload1, ok := dec.NextPayload()
	if !ok || !bytes.Equal(payload1, p1) {
		t.Fatalf("payload 1 missing or mismatched")
	}
}
