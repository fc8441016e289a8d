package crypto

import "io"

// we use arrays instead of slices to reduce errors and heap allocations

const (
	protocolName = "Noise_XX_25519_ChaChaPoly_BLAKE2s"
	prologue     = "ezdb-wire-v1"
)

// Key is a 32 byte curve25519 key, public or private.
type Key [KeySize]byte

type noiseHash [HashSize]byte

// KeyPair holds a curve25519 private key and its derived public key.
type KeyPair struct {
	Priv Key
	Pub  Key
}

// CipherState keeps the state of a cipher with a key and nonce
type CipherState struct {
	key   Key
	nonce uint64
}

// SymmetricState keeps track of the symmetric state between responder and initiator
type SymmetricState struct {
	cipher      CipherState
	chainingKey Key
	hash        noiseHash
}

// token is a single step of a handshake message pattern.
type token int

const (
	tokenE token = iota
	tokenS
	tokenEE
	tokenES
	tokenSE
	tokenSS
)

// xxPattern is the mutually authenticating XX message pattern. The
// handshake walks this table, one row per message.
var xxPattern = [][]token{
	{tokenE},
	{tokenE, tokenEE, tokenS, tokenES},
	{tokenS, tokenSE},
}

// fixed wire sizes of the three XX messages, empty payloads included
var xxMessageSizes = [...]int{
	KeySize,
	KeySize + (KeySize + TagSize) + TagSize,
	(KeySize + TagSize) + TagSize,
}

// HandshakeState keeps state for all data necessary for the handshake
type HandshakeState struct {
	sym       SymmetricState
	static    KeyPair
	ephem     KeyPair
	rs        Key // remote static, learned from the s token
	re        Key // remote ephemeral, learned from the e token
	hasRs     bool
	hasRe     bool
	initiator bool

	pattern     [][]token
	cursor      int
	shouldWrite bool
	consumed    bool

	// entropy source for ephemeral keys, nil means crypto/rand
	rng io.Reader
}
