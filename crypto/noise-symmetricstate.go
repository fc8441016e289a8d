package crypto

// Initialize fills out the appropriate fields in SymmetricState. A
// protocol name longer than the hash size is hashed down, a shorter one
// is zero padded.
func (s *SymmetricState) Initialize(protocol []byte) {
	if len(protocol) <= HashSize {
		copy(s.hash[:], protocol)
	} else {
		s.hash = hashFunc(protocol)
	}
	s.chainingKey = Key(s.hash)
}

// MixKey mixes chaining key with input data and re-keys the cipher
func (s *SymmetricState) MixKey(input []byte) {
	var tmp Key
	s.chainingKey, tmp, _ = deriveKeys(s.chainingKey, input)
	s.cipher.InitializeKey(tmp)
}

// MixHash mixes hash with input data
func (s *SymmetricState) MixHash(input []byte) {
	s.hash = hashFunc(append(s.hash[:], input...))
}

// MixKeyAndHash mixes key and hash with input data
func (s *SymmetricState) MixKeyAndHash(input []byte) {
	var tmpHash Key
	var tmpKey Key
	s.chainingKey, tmpHash, tmpKey = deriveKeys(s.chainingKey, input)
	s.MixHash(tmpHash[:])
	s.cipher.InitializeKey(tmpKey)
}

// GetHandshakeHash returns the running transcript hash as a byte slice
func (s *SymmetricState) GetHandshakeHash() []byte {
	return s.hash[:]
}

// EncryptAndHash encrypts the plaintext bound to the transcript hash,
// then mixes the ciphertext into the transcript
func (s *SymmetricState) EncryptAndHash(plaintext []byte) (ciphertext []byte, err error) {
	ciphertext, err = s.cipher.EncryptWithAd(s.hash[:], plaintext)
	if err != nil {
		return nil, err
	}
	s.MixHash(ciphertext)
	return ciphertext, nil
}

// DecryptAndHash decrypts the ciphertext bound to the transcript hash,
// then mixes the received ciphertext into the transcript. A tag failure
// aborts before any further mixing.
func (s *SymmetricState) DecryptAndHash(ciphertext []byte) (plaintext []byte, err error) {
	plaintext, err = s.cipher.DecryptWithAd(s.hash[:], ciphertext)
	if err != nil {
		return nil, err
	}
	s.MixHash(ciphertext)
	return plaintext, nil
}

// Split returns a pair of CipherStates for encrypting transport
// messages. The first encrypts initiator to responder traffic, the
// second responder to initiator.
func (s *SymmetricState) Split() (c1, c2 *CipherState) {
	tmpKey1, tmpKey2, _ := deriveKeys(s.chainingKey, nil)
	c1 = new(CipherState)
	c2 = new(CipherState)
	c1.InitializeKey(tmpKey1)
	c2.InitializeKey(tmpKey2)
	return c1, c2
}
