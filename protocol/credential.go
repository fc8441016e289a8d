package protocol

import (
	"bytes"

	"github.com/samber/oops"
)

const (
	// MaxCredentialSize bounds each of username and password.
	MaxCredentialSize = 512
	// CredentialSize is the fixed login message: 512 bytes of zero
	// padded username followed by 512 bytes of zero padded password.
	CredentialSize = 2 * MaxCredentialSize
)

// ErrCredentialTooLong is returned before any network or cryptographic
// work when a username or password exceeds MaxCredentialSize.
var ErrCredentialTooLong = oops.Errorf("ezdb/protocol: username or password too long")

// PackCredentials builds the fixed 1024 byte login buffer.
func PackCredentials(username, password string) ([]byte, error) {
	if len(username) > MaxCredentialSize || len(password) > MaxCredentialSize {
		return nil, ErrCredentialTooLong
	}
	buf := make([]byte, CredentialSize)
	copy(buf, username)
	copy(buf[MaxCredentialSize:], password)
	return buf, nil
}

// UnpackCredentials splits the login buffer back into username and
// password, trimming the zero padding.
func UnpackCredentials(buf []byte) (username, password string, err error) {
	if len(buf) != CredentialSize {
		return "", "", ErrCredentialTooLong
	}
	username = string(bytes.TrimRight(buf[:MaxCredentialSize], "\x00"))
	password = string(bytes.TrimRight(buf[MaxCredentialSize:], "\x00"))
	return username, password, nil
}
