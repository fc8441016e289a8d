package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/binary"
	"hash"
	"io"

	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the size of curve25519 keys and chacha20poly1305 keys.
	KeySize = chacha20poly1305.KeySize
	// HashSize is the size of a blake2s digest.
	HashSize = blake2s.Size
	// TagSize is the size of a poly1305 authentication tag.
	TagSize = 16
)

// deriveKeys uses a blake2s-based HKDF to derive up to three keys.
func deriveKeys(inputKey Key, salt []byte) (key1, key2, key3 Key) {
	keyReader := hkdf.New(blake2s256Unkeyed, inputKey[:], salt, nil)
	// should never reach entropy limit with 32 bytes of input
	// and only 3 keys generated, we can supress errors for simplicity
	io.ReadFull(keyReader, key1[:])
	io.ReadFull(keyReader, key2[:])
	io.ReadFull(keyReader, key3[:])
	return
}

func rekey(key Key) (newKey Key) {
	zeros := [KeySize]byte{}
	tmp := encryptFunc(nil, key, 1<<64-1, zeros[:], nil)
	copy(newKey[:], tmp[:KeySize])
	return
}

// ZeroBytes fills all slices passed in with zeros.
func ZeroBytes(keys ...[]byte) {
	for _, key := range keys {
		for i := range key {
			key[i] = 0
		}
	}
}

// encryptFunc encrypts the plaintext with the key and nonce using ChaCha20, and authorizes it with Poly1305
// dst and authtext are optional
func encryptFunc(dst []byte, key Key, counter uint64, plaintext, authtext []byte) []byte {
	nonce := [chacha20poly1305.NonceSize]byte{}
	// Noise specifies little endian nonce for ChaCha20
	binary.LittleEndian.PutUint64(nonce[4:], counter)
	// can supress error, key[:] is guaranteed to be 32 bytes
	aead, _ := chacha20poly1305.New(key[:])
	return aead.Seal(dst, nonce[:], plaintext, authtext)
}

// decryptFunc verifies the ciphertext and authtext with Poly1305, then decrypts it with the key and nonce using ChaCha20.
// dst is optional
func decryptFunc(dst []byte, key Key, counter uint64, ciphertext, authtext []byte) ([]byte, error) {
	// can supress error, key[:] is guaranteed to be 32 bytes
	aead, _ := chacha20poly1305.New(key[:])
	nonce := [chacha20poly1305.NonceSize]byte{}
	// Noise specifies little endian nonce for ChaCha20
	binary.LittleEndian.PutUint64(nonce[4:], counter)

	plaintext, err := aead.Open(dst, nonce[:], ciphertext, authtext)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// dhFunc is elliptical curve diffie-hellman with curve25519 keys.
// The all-zero shared secret is rejected so that a peer sending a
// low-order point can never pin the session key.
func dhFunc(priv, pub Key) (shared Key, err error) {
	result, err := curve25519.X25519(priv[:], pub[:])
	if err != nil {
		return shared, ErrDegenerateKey
	}
	copy(shared[:], result)
	if shared.IsZero() {
		return shared, ErrDegenerateKey
	}
	return shared, nil
}

// generates a 32 byte curve25519 pubkey from a 32 byte private key
func genPubkey(priv Key) (pub Key, err error) {
	result, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], result)
	return
}

// blake2s-256 unkeyed hashFunc (32 bytes)
func hashFunc(b []byte) noiseHash {
	return blake2s.Sum256(b)
}

// blake2s-256 HMAC (32 bytes)
func hmacFunc(key Key, b []byte) (sum noiseHash) {
	h := hmac.New(blake2s256Unkeyed, key[:])
	// blake2s digest.Write never returns err
	_, _ = h.Write(b)
	result := h.Sum(nil)
	copy(sum[:], result)
	return sum
}

// blake2s hash for HMAC and HKDF functions
func blake2s256Unkeyed() hash.Hash {
	// this can't return an error if key is nil
	h, _ := blake2s.New256(nil)
	return h
}

// HashPassword hashes a password for storage and comparison.
func HashPassword(password []byte) [HashSize]byte {
	return blake2s.Sum256(password)
}

func defaultRand(rng io.Reader) io.Reader {
	if rng == nil {
		return rand.Reader
	}
	return rng
}
