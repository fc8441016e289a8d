package transport

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"

	"github.com/ezdb/ezdb-go/crypto"
)

var log = logger.GetGoI2PLogger()

const (
	// MaxFrameSize is the largest ciphertext (tag included) accepted in
	// one transport frame. A larger length prefix is a protocol
	// violation and rejected before allocation.
	MaxFrameSize = 65535
	// MaxPayloadSize caps how far a compressed payload may inflate.
	MaxPayloadSize = 1 << 30
	// lenPrefixSize is the 8 byte little endian length prefix.
	lenPrefixSize = 8
)

// ReadTimeout bounds every blocking read on the connection. An expired
// deadline is fatal for the connection only.
var ReadTimeout = 15 * time.Second

// Conn is an encrypted, framed byte stream built from the two
// CipherStates of a completed handshake. Nonces advance in lock-step
// with the peer; any framing or authentication fault is unrecoverable
// and the connection must be closed.
type Conn struct {
	send   *crypto.CipherState
	recv   *crypto.CipherState
	stream net.Conn
	peer   crypto.Key
	closed bool
}

// NewConn assembles a Conn from a handshake's split CipherStates. c1 is
// the initiator-to-responder state, c2 the reverse, matching Split.
// peer is the remote static key authenticated during the handshake.
func NewConn(stream net.Conn, initiator bool, c1, c2 *crypto.CipherState, peer crypto.Key) *Conn {
	c := &Conn{stream: stream, peer: peer}
	if initiator {
		c.send, c.recv = c1, c2
	} else {
		c.send, c.recv = c2, c1
	}
	return c
}

// Peer returns the remote party's authenticated static public key.
func (c *Conn) Peer() crypto.Key {
	return c.peer
}

// Send encrypts plaintext and writes one length-prefixed frame.
func (c *Conn) Send(plaintext []byte) error {
	if c.closed {
		return ErrClosed
	}
	ciphertext, err := c.send.EncryptWithAd(nil, plaintext)
	if err != nil {
		return err
	}
	if len(ciphertext) > MaxFrameSize {
		return ErrOversizedFrame
	}

	frame := make([]byte, lenPrefixSize, lenPrefixSize+len(ciphertext))
	binary.LittleEndian.PutUint64(frame, uint64(len(ciphertext)))
	frame = append(frame, ciphertext...)

	if _, err := c.stream.Write(frame); err != nil {
		return oops.Wrapf(err, "writing frame")
	}
	return nil
}

// Receive reads one length-prefixed frame and decrypts it. The length
// prefix is validated before the frame buffer is allocated.
func (c *Conn) Receive() ([]byte, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if err := c.stream.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		return nil, oops.Wrapf(err, "setting read deadline")
	}

	var prefix [lenPrefixSize]byte
	if _, err := io.ReadFull(c.stream, prefix[:]); err != nil {
		return nil, wrapReadErr(err)
	}
	size := binary.LittleEndian.Uint64(prefix[:])
	if size > MaxFrameSize {
		log.WithFields(logger.Fields{
			"at":   "transport.Receive",
			"size": size,
		}).Warn("rejected oversized frame")
		return nil, ErrOversizedFrame
	}

	ciphertext := make([]byte, size)
	if _, err := io.ReadFull(c.stream, ciphertext); err != nil {
		return nil, wrapReadErr(err)
	}

	plaintext, err := c.recv.DecryptWithAd(nil, ciphertext)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// SendCompressed deflates the payload before encryption. Compression
// must happen first: ciphertext is incompressible.
func (c *Conn) SendCompressed(payload []byte) error {
	compressed, err := Compress(payload)
	if err != nil {
		return err
	}
	return c.Send(compressed)
}

// ReceiveCompressed reads one frame and inflates its plaintext.
func (c *Conn) ReceiveCompressed() ([]byte, error) {
	compressed, err := c.Receive()
	if err != nil {
		return nil, err
	}
	return Decompress(compressed)
}

// Close releases the connection's key material and closes the stream.
// Safe at any point of the exchange, and safe to call twice.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.send.Zero()
	c.recv.Zero()
	crypto.ZeroBytes(c.peer[:])
	return c.stream.Close()
}

func wrapReadErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() || errors.Is(err, os.ErrDeadlineExceeded) {
		return ErrTimeout
	}
	return oops.Wrapf(err, "reading frame")
}
