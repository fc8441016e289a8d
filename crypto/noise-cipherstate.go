package crypto

import "math"

// InitializeKey initializes CipherState with a key
func (c *CipherState) InitializeKey(key Key) {
	c.key = key
	c.nonce = 0
}

// HasKey returns whether the CipherState has a key
func (c *CipherState) HasKey() bool {
	return !c.key.IsZero()
}

// SetNonce sets the nonce for the CipherState
func (c *CipherState) SetNonce(nonce uint64) {
	c.nonce = nonce
}

// Nonce returns the current nonce counter.
func (c *CipherState) Nonce() uint64 {
	return c.nonce
}

// EncryptWithAd encrypts plaintext with optional authentication data.
// Before a key is set it passes plaintext through unchanged. The nonce
// is derived from the counter, never transmitted, and incremented only
// on success.
func (c *CipherState) EncryptWithAd(authData, plaintext []byte) ([]byte, error) {
	if !c.HasKey() {
		return plaintext, nil
	}
	if c.nonce == math.MaxUint64 {
		// max nonce is reserved for rekey
		return nil, ErrNonceOverflow
	}
	encrypted := encryptFunc(nil, c.key, c.nonce, plaintext, authData)
	c.nonce++
	return encrypted, nil
}

// DecryptWithAd decrypts ciphertext with optional authentication data.
// A failed tag check leaves the nonce and key untouched.
func (c *CipherState) DecryptWithAd(authData, ciphertext []byte) ([]byte, error) {
	if !c.HasKey() {
		return ciphertext, nil
	}
	if c.nonce == math.MaxUint64 {
		return nil, ErrNonceOverflow
	}
	plaintext, err := decryptFunc(nil, c.key, c.nonce, ciphertext, authData)
	if err != nil {
		return nil, err
	}
	c.nonce++
	return plaintext, nil
}

// Rekey is a pseudorandom function that replaces the key with a new one
func (c *CipherState) Rekey() {
	c.key = rekey(c.key)
}

// Zero wipes the key material in place.
func (c *CipherState) Zero() {
	ZeroBytes(c.key[:])
	c.nonce = 0
}
