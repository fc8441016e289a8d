package crypto

import (
	mathrand "math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deterministic entropy for reproducible handshakes
func testRand(seed int64) *mathrand.Rand {
	return mathrand.New(mathrand.NewSource(seed))
}

func TestGenerateKeypair(t *testing.T) {
	a, err := GenerateKeypair(testRand(1))
	require.NoError(t, err)
	b, err := GenerateKeypair(testRand(1))
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed should give same keypair")

	c, err := GenerateKeypair(testRand(2))
	require.NoError(t, err)
	assert.NotEqual(t, a.Priv, c.Priv)

	derived, err := NewKeyPair(a.Priv)
	require.NoError(t, err)
	assert.Equal(t, a.Pub, derived.Pub)
}

func TestDHSymmetry(t *testing.T) {
	a, err := GenerateKeypair(nil)
	require.NoError(t, err)
	b, err := GenerateKeypair(nil)
	require.NoError(t, err)

	ab, err := dhFunc(a.Priv, b.Pub)
	require.NoError(t, err)
	ba, err := dhFunc(b.Priv, a.Pub)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestDHDegenerateKey(t *testing.T) {
	a, err := GenerateKeypair(nil)
	require.NoError(t, err)

	var zero Key
	_, err = dhFunc(a.Priv, zero)
	assert.ErrorIs(t, err, ErrDegenerateKey)
}

func TestCipherStateRoundTrip(t *testing.T) {
	var key Key
	copy(key[:], []byte("an example very very secret key."))

	send, recv := CipherState{}, CipherState{}
	send.InitializeKey(key)
	recv.InitializeKey(key)

	ad := []byte("associated")
	for i := 0; i < 5; i++ {
		plaintext := []byte("the quick brown fox")
		ciphertext, err := send.EncryptWithAd(ad, plaintext)
		require.NoError(t, err)
		assert.Len(t, ciphertext, len(plaintext)+TagSize)

		decrypted, err := recv.DecryptWithAd(ad, ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
	assert.Equal(t, uint64(5), send.Nonce())
	assert.Equal(t, uint64(5), recv.Nonce())
}

func TestCipherStateKeylessPassthrough(t *testing.T) {
	c := CipherState{}
	out, err := c.EncryptWithAd(nil, []byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), out)
	assert.Equal(t, uint64(0), c.Nonce(), "passthrough must not consume nonces")
}

func TestCipherStateTamperDetection(t *testing.T) {
	var key Key
	copy(key[:], []byte("an example very very secret key."))

	send, recv := CipherState{}, CipherState{}
	send.InitializeKey(key)
	recv.InitializeKey(key)

	ciphertext, err := send.EncryptWithAd([]byte("ad"), []byte("payload"))
	require.NoError(t, err)

	for bit := 0; bit < len(ciphertext)*8; bit += 13 {
		tampered := append([]byte(nil), ciphertext...)
		tampered[bit/8] ^= 1 << (bit % 8)
		_, err := recv.DecryptWithAd([]byte("ad"), tampered)
		assert.ErrorIs(t, err, ErrDecrypt)
		assert.Equal(t, uint64(0), recv.Nonce(), "failed decrypt must not advance the nonce")
	}

	// tampering the associated data must fail too
	_, err = recv.DecryptWithAd([]byte("da"), ciphertext)
	assert.ErrorIs(t, err, ErrDecrypt)
	assert.Equal(t, uint64(0), recv.Nonce())

	// the untouched message still decrypts
	plaintext, err := recv.DecryptWithAd([]byte("ad"), ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), plaintext)
}

func TestRekey(t *testing.T) {
	var key Key
	copy(key[:], []byte("an example very very secret key."))

	c := CipherState{}
	c.InitializeKey(key)
	c.Rekey()
	assert.NotEqual(t, key, c.key)
	assert.True(t, c.HasKey())
}

func TestSymmetricStateTranscript(t *testing.T) {
	var a, b SymmetricState
	a.Initialize([]byte(protocolName))
	b.Initialize([]byte(protocolName))
	assert.Equal(t, a.GetHandshakeHash(), b.GetHandshakeHash())

	a.MixHash([]byte("msg"))
	assert.NotEqual(t, a.GetHandshakeHash(), b.GetHandshakeHash())
	b.MixHash([]byte("msg"))
	assert.Equal(t, a.GetHandshakeHash(), b.GetHandshakeHash())
}

func TestSymmetricStateShortProtocolName(t *testing.T) {
	var s SymmetricState
	s.Initialize([]byte("short"))
	h := s.GetHandshakeHash()
	assert.Equal(t, []byte("short"), h[:5])
	for _, c := range h[5:] {
		assert.Zero(t, c, "short protocol names are zero padded")
	}
}

// runHandshake drives a full XX exchange between two in-memory parties
// and returns both sides' split CipherStates.
func runHandshake(t *testing.T, init, resp *HandshakeState) (ic1, ic2, rc1, rc2 *CipherState) {
	t.Helper()

	msg0, c1, c2, err := init.WriteMessage()
	require.NoError(t, err)
	require.Nil(t, c1)
	require.Nil(t, c2)
	require.Len(t, msg0, init.MessageSize(0))

	c1, c2, err = resp.ReadMessage(msg0)
	require.NoError(t, err)
	require.Nil(t, c1)

	msg1, c1, c2, err := resp.WriteMessage()
	require.NoError(t, err)
	require.Nil(t, c1)
	require.Len(t, msg1, init.MessageSize(1))

	c1, c2, err = init.ReadMessage(msg1)
	require.NoError(t, err)
	require.Nil(t, c1)

	msg2, ic1, ic2, err := init.WriteMessage()
	require.NoError(t, err)
	require.NotNil(t, ic1)
	require.NotNil(t, ic2)
	require.Len(t, msg2, init.MessageSize(2))

	rc1, rc2, err = resp.ReadMessage(msg2)
	require.NoError(t, err)
	require.NotNil(t, rc1)
	require.NotNil(t, rc2)
	return
}

func TestHandshakeXX(t *testing.T) {
	initStatic, err := GenerateKeypair(testRand(10))
	require.NoError(t, err)
	respStatic, err := GenerateKeypair(testRand(20))
	require.NoError(t, err)

	init := NewHandshake(true, initStatic, testRand(30))
	resp := NewHandshake(false, respStatic, testRand(40))

	ic1, ic2, rc1, rc2 := runHandshake(t, init, resp)

	// both sides learned each other's static key
	rs, ok := init.RemoteStatic()
	require.True(t, ok)
	assert.Equal(t, respStatic.Pub, rs)
	rs, ok = resp.RemoteStatic()
	require.True(t, ok)
	assert.Equal(t, initStatic.Pub, rs)

	// transcripts agree
	assert.Equal(t, init.HandshakeHash(), resp.HandshakeHash())

	// initiator send pairs with responder recv
	ct, err := ic1.EncryptWithAd(nil, []byte("from initiator"))
	require.NoError(t, err)
	pt, err := rc1.DecryptWithAd(nil, ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("from initiator"), pt)

	// and the reverse direction
	ct, err = rc2.EncryptWithAd(nil, []byte("from responder"))
	require.NoError(t, err)
	pt, err = ic2.DecryptWithAd(nil, ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("from responder"), pt)
}

func TestHandshakeOutOfOrder(t *testing.T) {
	static, err := GenerateKeypair(nil)
	require.NoError(t, err)

	resp := NewHandshake(false, static, nil)
	_, _, _, err = resp.WriteMessage()
	assert.ErrorIs(t, err, ErrOutOfOrder, "responder must not write message 0")

	init := NewHandshake(true, static, nil)
	_, _, err = init.ReadMessage(make([]byte, KeySize))
	assert.ErrorIs(t, err, ErrOutOfOrder, "initiator must not read message 0")
}

func TestHandshakeConsumed(t *testing.T) {
	initStatic, err := GenerateKeypair(nil)
	require.NoError(t, err)
	respStatic, err := GenerateKeypair(nil)
	require.NoError(t, err)

	init := NewHandshake(true, initStatic, nil)
	resp := NewHandshake(false, respStatic, nil)
	runHandshake(t, init, resp)

	_, _, _, err = init.WriteMessage()
	assert.ErrorIs(t, err, ErrConsumed)
	_, _, err = resp.ReadMessage(make([]byte, KeySize))
	assert.ErrorIs(t, err, ErrConsumed)
}

func TestHandshakeBadMessageSize(t *testing.T) {
	static, err := GenerateKeypair(nil)
	require.NoError(t, err)

	resp := NewHandshake(false, static, nil)
	_, _, err = resp.ReadMessage(make([]byte, KeySize-1))
	assert.ErrorIs(t, err, ErrMessageSize)
}

func TestHandshakeDegenerateEphemeral(t *testing.T) {
	respStatic, err := GenerateKeypair(nil)
	require.NoError(t, err)

	// an all-zero ephemeral is a low-order point and must kill the
	// handshake at the first DH, not produce a predictable key
	resp := NewHandshake(false, respStatic, nil)
	_, _, err = resp.ReadMessage(make([]byte, KeySize))
	require.NoError(t, err, "the raw key is only rejected once used in DH")

	_, _, _, err = resp.WriteMessage()
	assert.ErrorIs(t, err, ErrDegenerateKey)
}

func TestTranscriptBinding(t *testing.T) {
	initStatic, err := GenerateKeypair(nil)
	require.NoError(t, err)
	respStatic, err := GenerateKeypair(nil)
	require.NoError(t, err)

	t.Run("tamper message 0", func(t *testing.T) {
		init := NewHandshake(true, initStatic, nil)
		resp := NewHandshake(false, respStatic, nil)

		msg0, _, _, err := init.WriteMessage()
		require.NoError(t, err)
		msg0[0] ^= 0x01
		_, _, err = resp.ReadMessage(msg0)
		require.NoError(t, err, "message 0 is raw, corruption surfaces later")

		// transcripts have diverged, so the initiator cannot open the
		// responder's encrypted static key in message 1
		msg1, _, _, err := resp.WriteMessage()
		require.NoError(t, err)
		_, _, err = init.ReadMessage(msg1)
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("tamper message 1", func(t *testing.T) {
		init := NewHandshake(true, initStatic, nil)
		resp := NewHandshake(false, respStatic, nil)

		msg0, _, _, err := init.WriteMessage()
		require.NoError(t, err)
		_, _, err = resp.ReadMessage(msg0)
		require.NoError(t, err)

		msg1, _, _, err := resp.WriteMessage()
		require.NoError(t, err)
		msg1[len(msg1)-1] ^= 0x80
		_, _, err = init.ReadMessage(msg1)
		assert.ErrorIs(t, err, ErrDecrypt)
	})
}

func TestKeyBase64RoundTrip(t *testing.T) {
	k, err := GenerateKeypair(nil)
	require.NoError(t, err)

	parsed, err := KeyFromBase64(k.Pub.String())
	require.NoError(t, err)
	assert.Equal(t, k.Pub, parsed)

	_, err = KeyFromBase64("dG9vc2hvcnQ=")
	assert.Error(t, err)
}
