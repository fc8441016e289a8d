package crypto

import "io"

// NewHandshake sets up the initial state for one XX handshake attempt.
// The state is single use: after the third message has been processed
// it only yields the split CipherStates and refuses further calls.
// rng feeds ephemeral key generation, nil means crypto/rand.
func NewHandshake(initiator bool, static KeyPair, rng io.Reader) *HandshakeState {
	h := &HandshakeState{
		static:      static,
		initiator:   initiator,
		pattern:     xxPattern,
		shouldWrite: initiator,
		rng:         rng,
	}
	h.sym.Initialize([]byte(protocolName))
	h.sym.MixHash([]byte(prologue))
	return h
}

// MessageCount is the number of messages in the handshake pattern.
func (h *HandshakeState) MessageCount() int {
	return len(h.pattern)
}

// MessageSize returns the exact wire size of handshake message i. All
// XX messages carry an empty payload so sizes are fixed.
func (h *HandshakeState) MessageSize(i int) int {
	return xxMessageSizes[i]
}

// RemoteStatic returns the peer's static public key once the s token
// has been received.
func (h *HandshakeState) RemoteStatic() (Key, bool) {
	return h.rs, h.hasRs
}

// HandshakeHash returns the running transcript hash. After the final
// message it uniquely binds the session to the full handshake history.
func (h *HandshakeState) HandshakeHash() []byte {
	return h.sym.GetHandshakeHash()
}

// Zero wipes all key material held by the handshake.
func (h *HandshakeState) Zero() {
	h.static.Zero()
	h.ephem.Zero()
	ZeroBytes(h.rs[:], h.re[:])
	h.sym.cipher.Zero()
	ZeroBytes(h.sym.chainingKey[:])
	h.consumed = true
}

// dhOperands maps (role, token) to the local keypair and remote public
// key fed to DH. Both parties arrive at the same shared secret because
// the mapping mirrors across roles. Keeping this in one place is what
// guarantees write and read paths can never disagree.
func (h *HandshakeState) dhOperands(t token) (local KeyPair, remote Key) {
	switch t {
	case tokenEE:
		return h.ephem, h.re
	case tokenSS:
		return h.static, h.rs
	case tokenES:
		if h.initiator {
			return h.ephem, h.rs
		}
		return h.static, h.re
	case tokenSE:
		if h.initiator {
			return h.static, h.re
		}
		return h.ephem, h.rs
	}
	panic("not a dh token")
}

func (h *HandshakeState) mixDH(t token) error {
	local, remote := h.dhOperands(t)
	shared, err := dhFunc(local.Priv, remote)
	if err != nil {
		return err
	}
	h.sym.MixKey(shared[:])
	ZeroBytes(shared[:])
	return nil
}

// WriteMessage processes the tokens of the current pattern index and
// returns the resulting handshake message. On the final index it also
// returns the two transport CipherStates from Split.
func (h *HandshakeState) WriteMessage() (msg []byte, c1, c2 *CipherState, err error) {
	if h.consumed {
		return nil, nil, nil, ErrConsumed
	}
	if !h.shouldWrite {
		return nil, nil, nil, ErrOutOfOrder
	}

	for _, t := range h.pattern[h.cursor] {
		switch t {
		case tokenE:
			h.ephem, err = GenerateKeypair(h.rng)
			if err != nil {
				return nil, nil, nil, err
			}
			msg = append(msg, h.ephem.Pub[:]...)
			h.sym.MixHash(h.ephem.Pub[:])
		case tokenS:
			var ciphertext []byte
			ciphertext, err = h.sym.EncryptAndHash(h.static.Pub[:])
			if err != nil {
				return nil, nil, nil, err
			}
			msg = append(msg, ciphertext...)
		default:
			if err = h.mixDH(t); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	// empty payload, still sealed and mixed so the message cannot be
	// truncated or extended without breaking the transcript
	payload, err := h.sym.EncryptAndHash(nil)
	if err != nil {
		return nil, nil, nil, err
	}
	msg = append(msg, payload...)

	c1, c2, err = h.advance()
	return msg, c1, c2, err
}

// ReadMessage consumes one handshake message, processing the tokens of
// the current pattern index. On the final index it also returns the two
// transport CipherStates from Split.
func (h *HandshakeState) ReadMessage(msg []byte) (c1, c2 *CipherState, err error) {
	if h.consumed {
		return nil, nil, ErrConsumed
	}
	if h.shouldWrite {
		return nil, nil, ErrOutOfOrder
	}
	if len(msg) != h.MessageSize(h.cursor) {
		return nil, nil, ErrMessageSize
	}

	for _, t := range h.pattern[h.cursor] {
		switch t {
		case tokenE:
			if h.hasRe {
				return nil, nil, ErrStaleKey
			}
			copy(h.re[:], msg[:KeySize])
			msg = msg[KeySize:]
			h.hasRe = true
			h.sym.MixHash(h.re[:])
		case tokenS:
			if h.hasRs {
				return nil, nil, ErrStaleKey
			}
			n := KeySize
			if h.sym.cipher.HasKey() {
				n += TagSize
			}
			var plaintext []byte
			plaintext, err = h.sym.DecryptAndHash(msg[:n])
			if err != nil {
				return nil, nil, err
			}
			copy(h.rs[:], plaintext)
			msg = msg[n:]
			h.hasRs = true
		default:
			if err = h.mixDH(t); err != nil {
				return nil, nil, err
			}
		}
	}

	// verify the sealed empty payload
	if _, err = h.sym.DecryptAndHash(msg); err != nil {
		return nil, nil, err
	}

	return h.advance()
}

// advance moves the cursor and splits on the last pattern index.
func (h *HandshakeState) advance() (c1, c2 *CipherState, err error) {
	h.cursor++
	h.shouldWrite = !h.shouldWrite
	if h.cursor == len(h.pattern) {
		h.consumed = true
		c1, c2 = h.sym.Split()
		// handshake secrets are spent once the transport keys exist
		h.ephem.Zero()
		ZeroBytes(h.sym.chainingKey[:])
		h.sym.cipher.Zero()
	}
	return c1, c2, nil
}
