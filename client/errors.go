package client

import (
	"errors"
	"strings"

	"github.com/ezdb/ezdb-go/crypto"
	"github.com/ezdb/ezdb-go/protocol"
	"github.com/ezdb/ezdb-go/transport"
)

// Kind buckets an error by which stage of a request produced it, so
// callers can decide on retries and messaging without matching every
// sentinel themselves.
type Kind int

const (
	// KindUnknown covers errors from outside the protocol, dial
	// failures included.
	KindUnknown Kind = iota
	// KindHandshake covers failures before a session existed.
	KindHandshake
	// KindTransport covers framing, timeout, and decrypt failures on
	// an established session.
	KindTransport
	// KindAuthentication covers rejected logins.
	KindAuthentication
	// KindAuthorization covers permission denials for a logged-in user.
	KindAuthorization
	// KindApplication covers instruction-level failures.
	KindApplication
)

// Classify maps an error from any Client call onto its Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrServerKeyMismatch),
		errors.Is(err, crypto.ErrStaleKey),
		errors.Is(err, crypto.ErrDegenerateKey),
		errors.Is(err, crypto.ErrMessageSize):
		return KindHandshake
	case errors.Is(err, protocol.ErrWrongUsername),
		errors.Is(err, protocol.ErrWrongPassword),
		errors.Is(err, protocol.ErrCredentialTooLong):
		return KindAuthentication
	case errors.Is(err, protocol.ErrNotAuthorized):
		return KindAuthorization
	case errors.Is(err, protocol.ErrInvalidInstruction),
		errors.Is(err, protocol.ErrNoSuchEntry),
		errors.Is(err, protocol.ErrStorage),
		errors.Is(err, protocol.ErrUnknownOpcode),
		errors.Is(err, protocol.ErrArgTooLong),
		errors.Is(err, protocol.ErrMissingArg),
		errors.Is(err, protocol.ErrBadUser):
		return KindApplication
	case errors.Is(err, transport.ErrTimeout),
		errors.Is(err, transport.ErrClosed),
		errors.Is(err, transport.ErrOversizedFrame),
		errors.Is(err, transport.ErrDecompress),
		errors.Is(err, crypto.ErrDecrypt),
		errors.Is(err, protocol.ErrBadStatus):
		return KindTransport
	}
	return KindUnknown
}

// Retryable reports whether retrying the same request could succeed.
// Credential and permission failures are deterministic, transport
// hiccups are not.
func Retryable(err error) bool {
	switch Classify(err) {
	case KindTransport, KindHandshake, KindUnknown:
		return err != nil
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case KindHandshake:
		return "handshake"
	case KindTransport:
		return "transport"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindApplication:
		return "application"
	}
	return "unknown"
}

func splitLines(data []byte) []string {
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
