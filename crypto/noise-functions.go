package crypto

import (
	"encoding/base64"
	"io"
)

// thank you to wireguard-go for this
// we need to do this to guarantee that the key is secure
// read here: https://web.archive.org/web/20200824034945/https://neilmadden.blog/2020/05/28/whats-the-curve25519-clamping-all-about/
func (k *Key) clamp() {
	k[0] &= 248
	k[31] = (k[31] & 127) | 64
}

// IsZero reports whether the key is all zero bytes.
func (k *Key) IsZero() bool {
	for i := range k {
		if k[i] != 0 {
			return false
		}
	}
	return true
}

// String renders the key in base64 for logs and key files.
func (k Key) String() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

// KeyFromBase64 parses a base64 encoded 32 byte key.
func KeyFromBase64(s string) (k Key, err error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return k, err
	}
	if len(b) != KeySize {
		return k, ErrMessageSize
	}
	copy(k[:], b)
	return k, nil
}

// GenerateKeypair draws a fresh private key from rng and derives its
// public key. A nil rng uses crypto/rand.
func GenerateKeypair(rng io.Reader) (k KeyPair, err error) {
	if _, err = io.ReadFull(defaultRand(rng), k.Priv[:]); err != nil {
		return k, err
	}
	k.Priv.clamp()
	k.Pub, err = genPubkey(k.Priv)
	return k, err
}

// NewKeyPair derives the public key for an existing private key.
func NewKeyPair(priv Key) (k KeyPair, err error) {
	k.Priv = priv
	k.Priv.clamp()
	k.Pub, err = genPubkey(k.Priv)
	return k, err
}

// Zero wipes the key material in place.
func (k *KeyPair) Zero() {
	ZeroBytes(k.Priv[:], k.Pub[:])
}
