// Package protocol defines the fixed instruction protocol spoken after
// the handshake: the credential buffer, the opcode header, the status
// tokens, and the per-opcode request/response contract.
package protocol

import (
	"bytes"

	"github.com/samber/oops"
)

// Opcode selects the server side operation for one connection. The set
// is fixed; extending it requires a protocol version bump.
type Opcode byte

const (
	OpUpload Opcode = iota + 1
	OpDownload
	OpUpdate
	OpDelete
	OpQuery
	OpNewUser
	OpKvUpload
	OpKvUpdate
	OpKvDelete
	OpKvDownload
	OpMetaListTables
	OpMetaListKeyValues
)

const (
	// HeaderSize is the fixed size of the opcode header message:
	// opcode byte, three reserved zero bytes, zero padded argument.
	HeaderSize = 4 + MaxArgSize
	// MaxArgSize bounds the table name or key carried in the header.
	MaxArgSize = 256
)

var (
	// ErrUnknownOpcode is returned for an opcode outside the fixed set.
	ErrUnknownOpcode = oops.Errorf("ezdb/protocol: unknown opcode")
	// ErrBadHeader is returned for a malformed instruction header.
	ErrBadHeader = oops.Errorf("ezdb/protocol: malformed instruction header")
	// ErrArgTooLong is returned when the argument exceeds MaxArgSize.
	ErrArgTooLong = oops.Errorf("ezdb/protocol: argument too long")
	// ErrMissingArg is returned when an opcode requires an argument and
	// none was supplied.
	ErrMissingArg = oops.Errorf("ezdb/protocol: missing argument")
)

// Permission is the authorization predicate checked before an opcode
// executes.
type Permission int

const (
	// PermNone only requires an authenticated identity.
	PermNone Permission = iota
	// PermRead requires read access to the named table or key.
	PermRead
	// PermWrite requires write access to the named table or key.
	PermWrite
	// PermAdmin requires the administrative flag.
	PermAdmin
)

// Contract describes how an opcode behaves on the wire. Every opcode is
// fully defined by this triple plus its permission.
type Contract struct {
	Name string
	// NeedsArg means the header must carry a table name or key.
	NeedsArg bool
	// NeedsData means a compressed associated-data message follows the header.
	NeedsData bool
	// PayloadResponse means the response is a compressed payload rather
	// than a bare status token.
	PayloadResponse bool
	Perm            Permission
}

var contracts = map[Opcode]Contract{
	OpUpload:            {"upload", true, true, false, PermWrite},
	OpDownload:          {"download", true, false, true, PermRead},
	OpUpdate:            {"update", true, true, false, PermWrite},
	OpDelete:            {"delete", true, true, false, PermWrite},
	OpQuery:             {"query", true, true, true, PermRead},
	OpNewUser:           {"new-user", false, true, false, PermAdmin},
	OpKvUpload:          {"kv-upload", true, true, false, PermWrite},
	OpKvUpdate:          {"kv-update", true, true, false, PermWrite},
	OpKvDelete:          {"kv-delete", true, false, false, PermWrite},
	OpKvDownload:        {"kv-download", true, false, true, PermRead},
	OpMetaListTables:    {"meta-list-tables", false, false, true, PermNone},
	OpMetaListKeyValues: {"meta-list-key-values", false, false, true, PermNone},
}

// Lookup returns the wire contract for op.
func (op Opcode) Lookup() (Contract, error) {
	c, ok := contracts[op]
	if !ok {
		return Contract{}, ErrUnknownOpcode
	}
	return c, nil
}

// OpcodeByName resolves an opcode from its contract name, for CLIs and
// config files.
func OpcodeByName(name string) (Opcode, error) {
	for op, c := range contracts {
		if c.Name == name {
			return op, nil
		}
	}
	return 0, ErrUnknownOpcode
}

func (op Opcode) String() string {
	if c, ok := contracts[op]; ok {
		return c.Name
	}
	return "unknown"
}

// Instruction is one client request: an opcode plus its header argument.
type Instruction struct {
	Op  Opcode
	Arg string
}

// EncodeHeader packs the instruction into the fixed-size header message.
func (i Instruction) EncodeHeader() ([]byte, error) {
	c, err := i.Op.Lookup()
	if err != nil {
		return nil, err
	}
	if len(i.Arg) > MaxArgSize {
		return nil, ErrArgTooLong
	}
	if c.NeedsArg && i.Arg == "" {
		return nil, ErrMissingArg
	}

	header := make([]byte, HeaderSize)
	header[0] = byte(i.Op)
	copy(header[4:], i.Arg)
	return header, nil
}

// DecodeHeader parses and validates a fixed-size header message.
func DecodeHeader(header []byte) (Instruction, error) {
	if len(header) != HeaderSize {
		return Instruction{}, ErrBadHeader
	}
	if header[1] != 0 || header[2] != 0 || header[3] != 0 {
		return Instruction{}, ErrBadHeader
	}

	ins := Instruction{Op: Opcode(header[0])}
	c, err := ins.Op.Lookup()
	if err != nil {
		return Instruction{}, err
	}

	arg := header[4:]
	if i := bytes.IndexByte(arg, 0); i >= 0 {
		// everything after the first zero must be padding
		if !isZero(arg[i:]) {
			return Instruction{}, ErrBadHeader
		}
		arg = arg[:i]
	}
	ins.Arg = string(arg)

	if c.NeedsArg && ins.Arg == "" {
		return Instruction{}, ErrMissingArg
	}
	return ins, nil
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
