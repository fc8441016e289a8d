package protocol

import "github.com/samber/oops"

// Status is the single byte result token the server sends, encrypted
// and never compressed. Each failure kind is distinguishable so the
// client can decide whether a retry makes sense.
type Status byte

const (
	StatusOK Status = iota
	StatusWrongUsername
	StatusWrongPassword
	StatusCredentialTooLong
	StatusNotAuthorized
	StatusInvalidInstruction
	StatusNoSuchEntry
	StatusStorageError
)

var (
	// ErrWrongUsername means the username is unknown. Retryable only
	// with different credentials on a new connection.
	ErrWrongUsername = oops.Errorf("ezdb/protocol: username is incorrect")
	// ErrWrongPassword means the password did not match. Retryable only
	// with different credentials on a new connection.
	ErrWrongPassword = oops.Errorf("ezdb/protocol: password is incorrect")
	// ErrNotAuthorized means the authenticated identity may not perform
	// the requested opcode. Not retryable without different privileges.
	ErrNotAuthorized = oops.Errorf("ezdb/protocol: not authorized")
	// ErrInvalidInstruction means the server rejected the instruction
	// header or associated data.
	ErrInvalidInstruction = oops.Errorf("ezdb/protocol: invalid instruction")
	// ErrNoSuchEntry means the named table or key does not exist.
	ErrNoSuchEntry = oops.Errorf("ezdb/protocol: no such table or key")
	// ErrStorage means the storage collaborator failed.
	ErrStorage = oops.Errorf("ezdb/protocol: storage failure")
	// ErrBadStatus means the server sent a token outside the protocol.
	ErrBadStatus = oops.Errorf("ezdb/protocol: unrecognized status token")
)

// Encode renders the status as its one byte wire form.
func (s Status) Encode() []byte {
	return []byte{byte(s)}
}

// DecodeStatus parses a status token message.
func DecodeStatus(msg []byte) (Status, error) {
	if len(msg) != 1 {
		return 0, ErrBadStatus
	}
	s := Status(msg[0])
	if s > StatusStorageError {
		return 0, ErrBadStatus
	}
	return s, nil
}

// Err maps a status token to its error, nil for StatusOK.
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusWrongUsername:
		return ErrWrongUsername
	case StatusWrongPassword:
		return ErrWrongPassword
	case StatusCredentialTooLong:
		return ErrCredentialTooLong
	case StatusNotAuthorized:
		return ErrNotAuthorized
	case StatusInvalidInstruction:
		return ErrInvalidInstruction
	case StatusNoSuchEntry:
		return ErrNoSuchEntry
	case StatusStorageError:
		return ErrStorage
	}
	return ErrBadStatus
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWrongUsername:
		return "wrong username"
	case StatusWrongPassword:
		return "wrong password"
	case StatusCredentialTooLong:
		return "credential too long"
	case StatusNotAuthorized:
		return "not authorized"
	case StatusInvalidInstruction:
		return "invalid instruction"
	case StatusNoSuchEntry:
		return "no such entry"
	case StatusStorageError:
		return "storage error"
	}
	return "unknown"
}
