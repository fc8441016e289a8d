package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	testCases := []struct {
		desc string
		ins  Instruction
	}{
		{"upload", Instruction{OpUpload, "products"}},
		{"query", Instruction{OpQuery, "products"}},
		{"kv get", Instruction{OpKvDownload, "blob1"}},
		{"list tables", Instruction{OpMetaListTables, ""}},
		{"new user", Instruction{OpNewUser, ""}},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			header, err := tC.ins.EncodeHeader()
			require.NoError(t, err)
			assert.Len(t, header, HeaderSize)

			decoded, err := DecodeHeader(header)
			require.NoError(t, err)
			assert.Equal(t, tC.ins, decoded)
		})
	}
}

func TestHeaderValidation(t *testing.T) {
	_, err := Instruction{Opcode(0xFF), "x"}.EncodeHeader()
	assert.ErrorIs(t, err, ErrUnknownOpcode)

	_, err = Instruction{OpUpload, strings.Repeat("a", MaxArgSize+1)}.EncodeHeader()
	assert.ErrorIs(t, err, ErrArgTooLong)

	_, err = Instruction{OpUpload, ""}.EncodeHeader()
	assert.ErrorIs(t, err, ErrMissingArg)

	_, err = DecodeHeader([]byte{byte(OpUpload)})
	assert.ErrorIs(t, err, ErrBadHeader)

	header, err := Instruction{OpDownload, "t"}.EncodeHeader()
	require.NoError(t, err)
	header[2] = 1
	_, err = DecodeHeader(header)
	assert.ErrorIs(t, err, ErrBadHeader)

	// embedded zero inside the argument is not padding
	header, err = Instruction{OpDownload, "ab"}.EncodeHeader()
	require.NoError(t, err)
	header[5] = 0
	header[6] = 'c'
	_, err = DecodeHeader(header)
	assert.ErrorIs(t, err, ErrBadHeader)

	header, err = Instruction{OpMetaListTables, ""}.EncodeHeader()
	require.NoError(t, err)
	header[0] = byte(OpUpload)
	_, err = DecodeHeader(header)
	assert.ErrorIs(t, err, ErrMissingArg)
}

func TestContracts(t *testing.T) {
	for op := OpUpload; op <= OpMetaListKeyValues; op++ {
		c, err := op.Lookup()
		require.NoError(t, err)
		assert.NotEmpty(t, c.Name)
		if c.PayloadResponse {
			// payload responses are reads, never admin-gated
			assert.NotEqual(t, PermAdmin, c.Perm, c.Name)
		}
	}
	_, err := Opcode(0).Lookup()
	assert.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestOpcodeByName(t *testing.T) {
	op, err := OpcodeByName("query")
	require.NoError(t, err)
	assert.Equal(t, OpQuery, op)

	_, err = OpcodeByName("drop-everything")
	assert.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestPackCredentials(t *testing.T) {
	buf, err := PackCredentials("admin", "hunter2")
	require.NoError(t, err)
	require.Len(t, buf, CredentialSize)

	user, pass, err := UnpackCredentials(buf)
	require.NoError(t, err)
	assert.Equal(t, "admin", user)
	assert.Equal(t, "hunter2", pass)
}

func TestPackCredentialsTooLong(t *testing.T) {
	long := strings.Repeat("a", MaxCredentialSize+1)

	_, err := PackCredentials(long, "pw")
	assert.ErrorIs(t, err, ErrCredentialTooLong)
	_, err = PackCredentials("user", long)
	assert.ErrorIs(t, err, ErrCredentialTooLong)

	// exactly at the bound is fine
	_, err = PackCredentials(long[:MaxCredentialSize], long[:MaxCredentialSize])
	assert.NoError(t, err)
}

func TestStatusRoundTrip(t *testing.T) {
	for s := StatusOK; s <= StatusStorageError; s++ {
		decoded, err := DecodeStatus(s.Encode())
		require.NoError(t, err)
		assert.Equal(t, s, decoded)
	}

	_, err := DecodeStatus([]byte{0xEE})
	assert.ErrorIs(t, err, ErrBadStatus)
	_, err = DecodeStatus(nil)
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestStatusErrDistinguishable(t *testing.T) {
	assert.NoError(t, StatusOK.Err())

	wrongUser := StatusWrongUsername.Err()
	wrongPass := StatusWrongPassword.Err()
	require.Error(t, wrongUser)
	require.Error(t, wrongPass)
	assert.NotErrorIs(t, wrongUser, ErrWrongPassword)
	assert.NotErrorIs(t, wrongPass, ErrWrongUsername)
}

func TestUserRoundTrip(t *testing.T) {
	u := User{
		Username:     "bob",
		PasswordHash: []byte{1, 2, 3, 4},
		ReadTables:   []string{"products"},
		WriteTables:  []string{"products", "orders"},
	}
	data, err := u.Encode()
	require.NoError(t, err)

	decoded, err := DecodeUser(data)
	require.NoError(t, err)
	assert.Equal(t, u, decoded)
}

func TestUserValidation(t *testing.T) {
	_, err := DecodeUser([]byte("not cbor"))
	assert.ErrorIs(t, err, ErrBadUser)

	data, err := (User{Username: "", PasswordHash: []byte{1}}).Encode()
	require.NoError(t, err)
	_, err = DecodeUser(data)
	assert.ErrorIs(t, err, ErrBadUser)
}

func TestUserPermissions(t *testing.T) {
	u := User{
		Username:    "bob",
		ReadTables:  []string{"products"},
		WriteTables: []string{"*"},
	}
	assert.True(t, u.CanRead("products"))
	assert.False(t, u.CanRead("orders"))
	assert.True(t, u.CanWrite("anything"))

	admin := User{Username: "root", Admin: true}
	assert.True(t, admin.CanRead("x"))
	assert.True(t, admin.CanWrite("x"))
}
