// Package client dials a server, authenticates, and issues a single
// instruction per connection through typed helpers.
package client

import (
	"io"
	"net"
	"time"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"

	"github.com/ezdb/ezdb-go/crypto"
	"github.com/ezdb/ezdb-go/protocol"
	"github.com/ezdb/ezdb-go/transport"
)

var log = logger.GetGoI2PLogger()

// DialTimeout bounds the TCP connect.
var DialTimeout = 10 * time.Second

// ErrServerKeyMismatch is returned when the server's static key does
// not match the pinned key, after the handshake already verified
// possession.
var ErrServerKeyMismatch = oops.Errorf("ezdb/client: server static key does not match pinned key")

// Config carries everything needed to open authenticated connections.
type Config struct {
	// Address is the server's host:port.
	Address string
	// StaticKeys is this client's long-term identity.
	StaticKeys crypto.KeyPair
	// ServerKey, when non-nil, pins the server's expected static key.
	ServerKey *crypto.Key
	Username  string
	Password  string
	// Rand feeds ephemeral key generation, nil means crypto/rand.
	Rand io.Reader
}

// Client issues instructions. Each call opens a fresh connection,
// authenticates, runs exactly one instruction, and closes.
type Client struct {
	cfg        Config
	credential []byte
}

// New validates the credentials against the fixed buffer bounds before
// any network activity and returns a Client.
func New(cfg Config) (*Client, error) {
	credential, err := protocol.PackCredentials(cfg.Username, cfg.Password)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, credential: credential}, nil
}

// Do runs one instruction and returns the response payload for opcodes
// that have one, nil otherwise.
func (c *Client) Do(ins protocol.Instruction, data []byte) ([]byte, error) {
	contract, err := ins.Op.Lookup()
	if err != nil {
		return nil, err
	}
	if contract.NeedsData && data == nil {
		data = []byte{}
	}

	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	header, err := ins.EncodeHeader()
	if err != nil {
		return nil, err
	}
	if err := conn.Send(header); err != nil {
		return nil, err
	}
	if contract.NeedsData {
		if err := conn.SendCompressed(data); err != nil {
			return nil, err
		}
	}

	log.WithFields(logger.Fields{
		"at":  "client.Do",
		"op":  ins.Op.String(),
		"arg": ins.Arg,
	}).Debug("instruction sent")

	return readResponse(conn, contract)
}

// dial opens a connection and runs the handshake and login exchange.
func (c *Client) dial() (*transport.Conn, error) {
	stream, err := net.DialTimeout("tcp", c.cfg.Address, DialTimeout)
	if err != nil {
		return nil, oops.Wrapf(err, "dialing %s", c.cfg.Address)
	}

	conn, err := transport.Handshake(stream, true, c.cfg.StaticKeys, c.cfg.Rand)
	if err != nil {
		stream.Close()
		return nil, err
	}
	if c.cfg.ServerKey != nil && conn.Peer() != *c.cfg.ServerKey {
		conn.Close()
		return nil, ErrServerKeyMismatch
	}

	if err := conn.Send(c.credential); err != nil {
		conn.Close()
		return nil, err
	}
	reply, err := conn.Receive()
	if err != nil {
		conn.Close()
		return nil, err
	}
	status, err := protocol.DecodeStatus(reply)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := status.Err(); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// readResponse interprets the single response message. Payload opcodes
// answer with either a compressed payload or a one-byte error token;
// the token is always shorter than the compressed framing, so length
// disambiguates.
func readResponse(conn *transport.Conn, contract protocol.Contract) ([]byte, error) {
	if !contract.PayloadResponse {
		reply, err := conn.Receive()
		if err != nil {
			return nil, err
		}
		status, err := protocol.DecodeStatus(reply)
		if err != nil {
			return nil, err
		}
		return nil, status.Err()
	}

	frame, err := conn.Receive()
	if err != nil {
		return nil, err
	}
	if len(frame) == 1 {
		status, err := protocol.DecodeStatus(frame)
		if err != nil {
			return nil, err
		}
		return nil, status.Err()
	}
	return transport.Decompress(frame)
}

// UploadTable creates a new table from CSV data.
func (c *Client) UploadTable(name string, csv []byte) error {
	_, err := c.Do(protocol.Instruction{Op: protocol.OpUpload, Arg: name}, csv)
	return err
}

// DownloadTable fetches a table as CSV.
func (c *Client) DownloadTable(name string) ([]byte, error) {
	return c.Do(protocol.Instruction{Op: protocol.OpDownload, Arg: name}, nil)
}

// UpdateTable appends CSV rows to an existing table.
func (c *Client) UpdateTable(name string, csv []byte) error {
	_, err := c.Do(protocol.Instruction{Op: protocol.OpUpdate, Arg: name}, csv)
	return err
}

// DeleteRows removes the rows of a table matched by the filter.
func (c *Client) DeleteRows(name, filter string) error {
	_, err := c.Do(protocol.Instruction{Op: protocol.OpDelete, Arg: name}, []byte(filter))
	return err
}

// Query returns the rows of a table matched by the filter, as CSV.
func (c *Client) Query(name, filter string) ([]byte, error) {
	return c.Do(protocol.Instruction{Op: protocol.OpQuery, Arg: name}, []byte(filter))
}

// CreateUser registers a new user record. Requires admin.
func (c *Client) CreateUser(user protocol.User) error {
	data, err := user.Encode()
	if err != nil {
		return err
	}
	_, err = c.Do(protocol.Instruction{Op: protocol.OpNewUser}, data)
	return err
}

// KvPut stores a value under a new key.
func (c *Client) KvPut(key string, value []byte) error {
	_, err := c.Do(protocol.Instruction{Op: protocol.OpKvUpload, Arg: key}, value)
	return err
}

// KvUpdate replaces the value under an existing key.
func (c *Client) KvUpdate(key string, value []byte) error {
	_, err := c.Do(protocol.Instruction{Op: protocol.OpKvUpdate, Arg: key}, value)
	return err
}

// KvDelete removes a key.
func (c *Client) KvDelete(key string) error {
	_, err := c.Do(protocol.Instruction{Op: protocol.OpKvDelete, Arg: key}, nil)
	return err
}

// KvGet fetches the value under a key.
func (c *Client) KvGet(key string) ([]byte, error) {
	return c.Do(protocol.Instruction{Op: protocol.OpKvDownload, Arg: key}, nil)
}

// ListTables returns the registered table names, one per line.
func (c *Client) ListTables() ([]string, error) {
	return c.list(protocol.OpMetaListTables)
}

// ListKeyValues returns the registered key-value keys, one per line.
func (c *Client) ListKeyValues() ([]string, error) {
	return c.list(protocol.OpMetaListKeyValues)
}

func (c *Client) list(op protocol.Opcode) ([]string, error) {
	out, err := c.Do(protocol.Instruction{Op: op}, nil)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return splitLines(out), nil
}
