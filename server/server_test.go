package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/samber/oops"

	"github.com/ezdb/ezdb-go/protocol"
)

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrMissingCollaborator)
}

func TestNewDefaultsAudit(t *testing.T) {
	srv, err := New(Config{
		Credentials: credentialStoreFunc(func(string, string) error { return nil }),
		Authorizer:  authorizerFunc(func(string, protocol.Opcode, string) error { return nil }),
		Executor:    executorFunc(func(string, protocol.Instruction, []byte) ([]byte, error) { return nil, nil }),
	})
	require.NoError(t, err)
	assert.NotNil(t, srv.cfg.Audit)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, protocol.StatusNoSuchEntry, statusFor(protocol.ErrNoSuchEntry))
	assert.Equal(t, protocol.StatusInvalidInstruction, statusFor(protocol.ErrInvalidInstruction))
	assert.Equal(t, protocol.StatusNotAuthorized, statusFor(protocol.ErrNotAuthorized))
	assert.Equal(t, protocol.StatusStorageError, statusFor(oops.Errorf("disk on fire")))
}

type credentialStoreFunc func(username, password string) error

func (f credentialStoreFunc) VerifyCredential(username, password string) error {
	return f(username, password)
}

type authorizerFunc func(identity string, op protocol.Opcode, arg string) error

func (f authorizerFunc) Authorize(identity string, op protocol.Opcode, arg string) error {
	return f(identity, op, arg)
}

type executorFunc func(identity string, ins protocol.Instruction, data []byte) ([]byte, error)

func (f executorFunc) Execute(identity string, ins protocol.Instruction, data []byte) ([]byte, error) {
	return f(identity, ins, data)
}
