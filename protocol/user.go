package protocol

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/samber/oops"
)

// User is the record carried by the create-user opcode, CBOR encoded
// as the instruction's associated data.
type User struct {
	Username     string   `cbor:"username"`
	PasswordHash []byte   `cbor:"password_hash"`
	ReadTables   []string `cbor:"read"`
	WriteTables  []string `cbor:"write"`
	Admin        bool     `cbor:"admin"`
}

// ErrBadUser is returned when a create-user payload cannot be decoded.
var ErrBadUser = oops.Errorf("ezdb/protocol: malformed user record")

// Encode serializes the user record to CBOR.
func (u User) Encode() ([]byte, error) {
	return cbor.Marshal(u)
}

// DecodeUser parses a CBOR user record, validating the required fields.
func DecodeUser(data []byte) (User, error) {
	var u User
	if err := cbor.Unmarshal(data, &u); err != nil {
		return User{}, ErrBadUser
	}
	if u.Username == "" || len(u.Username) > MaxCredentialSize || len(u.PasswordHash) == 0 {
		return User{}, ErrBadUser
	}
	return u, nil
}

// CanRead reports whether the user may read the named table or key.
func (u User) CanRead(name string) bool {
	return u.Admin || contains(u.ReadTables, name)
}

// CanWrite reports whether the user may modify the named table or key.
func (u User) CanWrite(name string) bool {
	return u.Admin || contains(u.WriteTables, name)
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name || n == "*" {
			return true
		}
	}
	return false
}
