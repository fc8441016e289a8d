package transport

import (
	"io"
	"net"
	"time"

	"github.com/go-i2p/logger"

	"github.com/ezdb/ezdb-go/crypto"
)

// Handshake runs the full three message exchange over an ordered byte
// stream and returns the encrypted connection. Handshake messages are
// written raw at their fixed sizes; framing starts only after the
// split. Any fault discards the handshake, and a retry needs a brand
// new one with fresh ephemeral keys.
func Handshake(stream net.Conn, initiator bool, static crypto.KeyPair, rng io.Reader) (*Conn, error) {
	hs := crypto.NewHandshake(initiator, static, rng)
	defer hs.Zero()

	var c1, c2 *crypto.CipherState
	for i := 0; i < hs.MessageCount(); i++ {
		write := initiator == (i%2 == 0)
		if write {
			msg, s1, s2, err := hs.WriteMessage()
			if err != nil {
				return nil, err
			}
			if _, err := stream.Write(msg); err != nil {
				return nil, wrapReadErr(err)
			}
			c1, c2 = s1, s2
		} else {
			if err := stream.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
				return nil, err
			}
			msg := make([]byte, hs.MessageSize(i))
			if _, err := io.ReadFull(stream, msg); err != nil {
				return nil, wrapReadErr(err)
			}
			s1, s2, err := hs.ReadMessage(msg)
			if err != nil {
				return nil, err
			}
			c1, c2 = s1, s2
		}
	}

	peer, ok := hs.RemoteStatic()
	if !ok {
		// cannot happen with the XX pattern, both sides send s
		return nil, crypto.ErrOutOfOrder
	}

	log.WithFields(logger.Fields{
		"at":        "transport.Handshake",
		"initiator": initiator,
		"peer":      peer.String(),
	}).Debug("handshake complete")

	return NewConn(stream, initiator, c1, c2, peer), nil
}
