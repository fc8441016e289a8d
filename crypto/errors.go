package crypto

import "github.com/samber/oops"

var (
	// ErrDecrypt is returned when an AEAD tag fails to verify.
	ErrDecrypt = oops.Errorf("ezdb/crypto: decryption error")
	// ErrDegenerateKey is returned when a DH operation yields the all-zero
	// shared secret, which means the peer sent a low-order public key.
	ErrDegenerateKey = oops.Errorf("ezdb/crypto: degenerate public key")
	// ErrOutOfOrder is returned when WriteMessage or ReadMessage is called
	// out of turn for the party's role.
	ErrOutOfOrder = oops.Errorf("ezdb/crypto: handshake message out of order")
	// ErrConsumed is returned when a completed handshake is used again.
	ErrConsumed = oops.Errorf("ezdb/crypto: handshake already consumed")
	// ErrStaleKey is returned when a remote key slot is populated twice,
	// which indicates a replayed or injected handshake message.
	ErrStaleKey = oops.Errorf("ezdb/crypto: remote key received twice")
	// ErrNonceOverflow is returned when a CipherState nonce counter is
	// exhausted. The session must be rekeyed or torn down.
	ErrNonceOverflow = oops.Errorf("ezdb/crypto: nonce counter exhausted")
	// ErrMessageSize is returned when a handshake message has the wrong length.
	ErrMessageSize = oops.Errorf("ezdb/crypto: bad handshake message length")
)
