package noise

import "brontide/crypto"

// processActOne is run by the responder on receipt of Act 1. It verifies
// the version and the initiator's ephemeral key, completes the es ECDH,
// and immediately produces Act 2. No intermediate awaiting-act-two
// state needs to be observable, since nothing else can arrive between
// emitting Act 2 and awaiting Act 3.
func processActOne(st responderAwaitingActOne, act1 []byte) ([]byte, handshakeState, error) {
	if act1[0] != handshakeVersion {
		return nil, nil, crypto.ErrUnknownVersion
	}

	reBytes := act1[1:34]
	re, err := crypto.ParsePublicKey(reBytes)
	if err != nil {
		return nil, nil, err
	}

	hs := st.hs
	hs.MixHash(reBytes)

	es := crypto.EcdhHash(st.localStatic, re)
	hs.MixKey(es)

	if _, err := hs.DecryptAndHash(act1[34:50]); err != nil {
		return nil, nil, err
	}

	ePub := crypto.SerializePublicKey(st.localEphemeral.PubKey())
	hs.MixHash(ePub)

	ee := crypto.EcdhHash(st.localEphemeral, re)
	hs.MixKey(ee)

	tag, err := hs.EncryptAndHash(nil)
	if err != nil {
		return nil, nil, err
	}

	act2 := make([]byte, 0, Act2Size)
	act2 = append(act2, handshakeVersion)
	act2 = append(act2, ePub...)
	act2 = append(act2, tag...)

	next := responderAwaitingActThree{
		hs:              hs,
		localStatic:     st.localStatic,
		localEphemeral:  st.localEphemeral,
		remoteEphemeral: re,
	}
	return act2, next, nil
}

// processActTwo is run by the initiator on receipt of Act 2. On success
// it immediately produces Act 3 and completes the handshake: the
// initiator has no further message to wait for once it has sent Act 3.
func processActTwo(st initiatorAwaitingActTwo, act2 []byte) ([]byte, *Result, error) {
	if act2[0] != handshakeVersion {
		return nil, nil, crypto.ErrUnknownVersion
	}

	reBytes := act2[1:34]
	re, err := crypto.ParsePublicKey(reBytes)
	if err != nil {
		return nil, nil, err
	}

	hs := st.hs
	hs.MixHash(reBytes)

	ee := crypto.EcdhHash(st.localEphemeral, re)
	hs.MixKey(ee)

	if _, err := hs.DecryptAndHash(act2[34:50]); err != nil {
		return nil, nil, err
	}

	localStaticPub := crypto.SerializePublicKey(st.localStatic.PubKey())
	c, err := hs.EncryptAndHash(localStaticPub)
	if err != nil {
		return nil, nil, err
	}

	se := crypto.EcdhHash(st.localStatic, re)
	hs.MixKey(se)

	t, err := hs.EncryptAndHash(nil)
	if err != nil {
		return nil, nil, err
	}

	act3 := make([]byte, 0, Act3Size)
	act3 = append(act3, handshakeVersion)
	act3 = append(act3, c...)
	act3 = append(act3, t...)

	sendKey, recvKey := crypto.HKDF5869(hs.ChainingKey(), nil)
	result := &Result{
		SendKey:      sendKey,
		RecvKey:      recvKey,
		ChainKey:     hs.ChainingKey(),
		RemoteStatic: st.remoteStatic,
	}
	return act3, result, nil
}

// processActThree is run by the responder on receipt of Act 3. It
// recovers and authenticates the initiator's static key and derives the
// final directional keys, completing the handshake.
func processActThree(st responderAwaitingActThree, act3 []byte) (*Result, error) {
	if act3[0] != handshakeVersion {
		return nil, crypto.ErrUnknownVersion
	}

	hs := st.hs
	c := act3[1:50]
	t := act3[50:66]

	remoteStaticBytes, err := hs.DecryptAndHash(c)
	if err != nil {
		return nil, err
	}
	remoteStatic, err := crypto.ParsePublicKey(remoteStaticBytes)
	if err != nil {
		return nil, err
	}

	se := crypto.EcdhHash(st.localEphemeral, remoteStatic)
	hs.MixKey(se)

	if _, err := hs.DecryptAndHash(t); err != nil {
		return nil, err
	}

	// For the responder the HKDF outputs are swapped relative to the
	// initiator: the first output is its receiving key.
	recvKey, sendKey := crypto.HKDF5869(hs.ChainingKey(), nil)
	return &Result{
		SendKey:      sendKey,
		RecvKey:      recvKey,
		ChainKey:     hs.ChainingKey(),
		RemoteStatic: remoteStatic,
	}, nil
}
