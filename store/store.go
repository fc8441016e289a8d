// Package store is the in-memory storage collaborator: named tables, a
// key-value blob map, and the user registry with its permission lists.
// It provides the credential, authorization, and execution services the
// server treats as opaque, and is safe for concurrent use.
package store

import (
	"crypto/subtle"
	"strings"
	"sync"

	"github.com/go-i2p/logger"

	"github.com/ezdb/ezdb-go/crypto"
	"github.com/ezdb/ezdb-go/protocol"
)

var log = logger.GetGoI2PLogger()

// Store holds all mutable state behind one lock. Instructions arrive
// one per connection, so per-instruction atomicity is simply the lock.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*Table
	kv     map[string][]byte
	users  map[string]protocol.User
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tables: make(map[string]*Table),
		kv:     make(map[string][]byte),
		users:  make(map[string]protocol.User),
	}
}

// AddUser registers a user with a plaintext password, hashing it for
// storage. Used for seeding; remote creation goes through Execute.
func (s *Store) AddUser(username, password string, user protocol.User) {
	hash := crypto.HashPassword([]byte(password))
	user.Username = username
	user.PasswordHash = hash[:]
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = user
}

// VerifyCredential checks a username and password, reporting wrong
// username and wrong password as distinct errors.
func (s *Store) VerifyCredential(username, password string) error {
	s.mu.RLock()
	user, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return protocol.ErrWrongUsername
	}
	hash := crypto.HashPassword([]byte(password))
	if subtle.ConstantTimeCompare(hash[:], user.PasswordHash) != 1 {
		return protocol.ErrWrongPassword
	}
	return nil
}

// Authorize checks the opcode's permission predicate against the
// authenticated identity.
func (s *Store) Authorize(identity string, op protocol.Opcode, arg string) error {
	c, err := op.Lookup()
	if err != nil {
		return protocol.ErrInvalidInstruction
	}

	s.mu.RLock()
	user, ok := s.users[identity]
	s.mu.RUnlock()
	if !ok {
		return protocol.ErrNotAuthorized
	}

	switch c.Perm {
	case protocol.PermNone:
		return nil
	case protocol.PermRead:
		if user.CanRead(arg) {
			return nil
		}
	case protocol.PermWrite:
		if user.CanWrite(arg) {
			return nil
		}
	case protocol.PermAdmin:
		if user.Admin {
			return nil
		}
	}
	return protocol.ErrNotAuthorized
}

// Execute runs one instruction against the store and returns the
// response payload for opcodes that have one.
func (s *Store) Execute(identity string, ins protocol.Instruction, data []byte) ([]byte, error) {
	log.WithFields(logger.Fields{
		"at":   "store.Execute",
		"op":   ins.Op.String(),
		"arg":  ins.Arg,
		"user": identity,
	}).Debug("executing instruction")

	s.mu.Lock()
	defer s.mu.Unlock()

	switch ins.Op {
	case protocol.OpUpload:
		if _, exists := s.tables[ins.Arg]; exists {
			return nil, protocol.ErrInvalidInstruction
		}
		t, err := ParseTable(data)
		if err != nil {
			return nil, protocol.ErrInvalidInstruction
		}
		s.tables[ins.Arg] = t
		return nil, nil

	case protocol.OpDownload:
		t, ok := s.tables[ins.Arg]
		if !ok {
			return nil, protocol.ErrNoSuchEntry
		}
		return t.Encode(), nil

	case protocol.OpUpdate:
		t, ok := s.tables[ins.Arg]
		if !ok {
			return nil, protocol.ErrNoSuchEntry
		}
		incoming, err := ParseTable(data)
		if err != nil {
			return nil, protocol.ErrInvalidInstruction
		}
		if err := t.Append(incoming); err != nil {
			return nil, protocol.ErrInvalidInstruction
		}
		return nil, nil

	case protocol.OpDelete:
		t, ok := s.tables[ins.Arg]
		if !ok {
			return nil, protocol.ErrNoSuchEntry
		}
		if _, err := t.DeleteRows(string(data)); err != nil {
			return nil, protocol.ErrInvalidInstruction
		}
		return nil, nil

	case protocol.OpQuery:
		t, ok := s.tables[ins.Arg]
		if !ok {
			return nil, protocol.ErrNoSuchEntry
		}
		result, err := t.Select(string(data))
		if err != nil {
			return nil, protocol.ErrInvalidInstruction
		}
		return result.Encode(), nil

	case protocol.OpNewUser:
		user, err := protocol.DecodeUser(data)
		if err != nil {
			return nil, protocol.ErrInvalidInstruction
		}
		s.users[user.Username] = user
		return nil, nil

	case protocol.OpKvUpload:
		if _, exists := s.kv[ins.Arg]; exists {
			return nil, protocol.ErrInvalidInstruction
		}
		s.kv[ins.Arg] = append([]byte(nil), data...)
		return nil, nil

	case protocol.OpKvUpdate:
		if _, exists := s.kv[ins.Arg]; !exists {
			return nil, protocol.ErrNoSuchEntry
		}
		s.kv[ins.Arg] = append([]byte(nil), data...)
		return nil, nil

	case protocol.OpKvDelete:
		if _, exists := s.kv[ins.Arg]; !exists {
			return nil, protocol.ErrNoSuchEntry
		}
		delete(s.kv, ins.Arg)
		return nil, nil

	case protocol.OpKvDownload:
		value, ok := s.kv[ins.Arg]
		if !ok {
			return nil, protocol.ErrNoSuchEntry
		}
		return append([]byte(nil), value...), nil

	case protocol.OpMetaListTables:
		return []byte(strings.Join(sortedNames(s.tables), "\n")), nil

	case protocol.OpMetaListKeyValues:
		return []byte(strings.Join(sortedNames(s.kv), "\n")), nil
	}

	return nil, protocol.ErrInvalidInstruction
}
