// Package server runs the accept-and-serve loop: one goroutine per
// connection, each walking the fixed sequence of handshake, credential
// exchange, and a single instruction exchange before closing.
package server

import (
	"errors"
	"io"
	"net"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"golang.org/x/net/netutil"

	"github.com/ezdb/ezdb-go/crypto"
	"github.com/ezdb/ezdb-go/protocol"
	"github.com/ezdb/ezdb-go/transport"
)

var log = logger.GetGoI2PLogger()

// CredentialStore verifies a login. It must distinguish an unknown
// username from a bad password via protocol.ErrWrongUsername and
// protocol.ErrWrongPassword.
type CredentialStore interface {
	VerifyCredential(username, password string) error
}

// Authorizer decides whether an authenticated identity may run an
// opcode against its argument, returning protocol.ErrNotAuthorized on
// denial.
type Authorizer interface {
	Authorize(identity string, op protocol.Opcode, arg string) error
}

// Executor runs one instruction against storage and returns the
// response payload for opcodes that have one. It is assumed to be
// internally synchronized and to make each instruction atomic.
type Executor interface {
	Execute(identity string, ins protocol.Instruction, data []byte) ([]byte, error)
}

// AuditFunc receives a fire-and-forget record of every served
// instruction. It must not block.
type AuditFunc func(identity string, ins protocol.Instruction, err error)

// Config assembles a Server from its collaborators.
type Config struct {
	StaticKeys  crypto.KeyPair
	Credentials CredentialStore
	Authorizer  Authorizer
	Executor    Executor
	// Audit may be nil.
	Audit AuditFunc
	// MaxConns caps concurrently served connections, 0 means no cap.
	MaxConns int
	// Rand feeds ephemeral key generation, nil means crypto/rand.
	Rand io.Reader
}

// Server serves the instruction protocol over a listener.
type Server struct {
	cfg Config
}

// ErrMissingCollaborator is returned by New when a required service is nil.
var ErrMissingCollaborator = oops.Errorf("ezdb/server: credential store, authorizer, and executor are required")

// New validates the config and builds a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Credentials == nil || cfg.Authorizer == nil || cfg.Executor == nil {
		return nil, ErrMissingCollaborator
	}
	if cfg.Audit == nil {
		cfg.Audit = func(string, protocol.Instruction, error) {}
	}
	return &Server{cfg: cfg}, nil
}

// Serve accepts connections until the listener is closed. Each
// connection is handled on its own goroutine with no shared mutable
// state beyond the collaborators.
func (s *Server) Serve(l net.Listener) error {
	if s.cfg.MaxConns > 0 {
		l = netutil.LimitListener(l, s.cfg.MaxConns)
	}
	log.WithFields(logger.Fields{
		"at":     "server.Serve",
		"addr":   l.Addr().String(),
		"pubkey": s.cfg.StaticKeys.Pub.String(),
	}).Info("serving")

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return oops.Wrapf(err, "accepting connection")
		}
		go s.handle(conn)
	}
}

// handle walks one connection through the whole protocol. Every exit
// path closes the connection; no error resumes it.
func (s *Server) handle(raw net.Conn) {
	remote := raw.RemoteAddr().String()

	conn, err := transport.Handshake(raw, false, s.cfg.StaticKeys, s.cfg.Rand)
	if err != nil {
		log.WithError(err).WithField("remote", remote).Debug("handshake failed")
		raw.Close()
		return
	}
	defer conn.Close()

	identity, ok := s.login(conn, remote)
	if !ok {
		return
	}

	s.serveInstruction(conn, identity, remote)
}

// login performs the credential exchange. On failure it sends the
// distinguishing error token and reads nothing further.
func (s *Server) login(conn *transport.Conn, remote string) (string, bool) {
	buf, err := conn.Receive()
	if err != nil {
		log.WithError(err).WithField("remote", remote).Debug("credential read failed")
		return "", false
	}
	if len(buf) != protocol.CredentialSize {
		conn.Send(protocol.StatusCredentialTooLong.Encode())
		return "", false
	}
	username, password, err := protocol.UnpackCredentials(buf)
	if err != nil {
		conn.Send(protocol.StatusCredentialTooLong.Encode())
		return "", false
	}

	if err := s.cfg.Credentials.VerifyCredential(username, password); err != nil {
		status := protocol.StatusWrongPassword
		if errors.Is(err, protocol.ErrWrongUsername) {
			status = protocol.StatusWrongUsername
		}
		log.WithFields(logger.Fields{
			"at":     "server.login",
			"remote": remote,
			"user":   username,
			"status": status.String(),
		}).Warn("login rejected")
		conn.Send(status.Encode())
		return "", false
	}

	if err := conn.Send(protocol.StatusOK.Encode()); err != nil {
		return "", false
	}
	return username, true
}

// serveInstruction reads exactly one opcode exchange and responds.
func (s *Server) serveInstruction(conn *transport.Conn, identity, remote string) {
	header, err := conn.Receive()
	if err != nil {
		log.WithError(err).WithField("remote", remote).Debug("header read failed")
		return
	}
	ins, err := protocol.DecodeHeader(header)
	if err != nil {
		conn.Send(protocol.StatusInvalidInstruction.Encode())
		return
	}
	contract, err := ins.Op.Lookup()
	if err != nil {
		conn.Send(protocol.StatusInvalidInstruction.Encode())
		return
	}

	if err := s.cfg.Authorizer.Authorize(identity, ins.Op, ins.Arg); err != nil {
		s.cfg.Audit(identity, ins, err)
		conn.Send(protocol.StatusNotAuthorized.Encode())
		return
	}

	var data []byte
	if contract.NeedsData {
		data, err = conn.ReceiveCompressed()
		if err != nil {
			log.WithError(err).WithField("remote", remote).Debug("data read failed")
			conn.Send(protocol.StatusInvalidInstruction.Encode())
			return
		}
	}

	payload, err := s.cfg.Executor.Execute(identity, ins, data)
	s.cfg.Audit(identity, ins, err)
	if err != nil {
		conn.Send(statusFor(err).Encode())
		return
	}

	if contract.PayloadResponse {
		err = conn.SendCompressed(payload)
	} else {
		err = conn.Send(protocol.StatusOK.Encode())
	}
	if err != nil {
		log.WithError(err).WithField("remote", remote).Debug("response write failed")
	}
}

// statusFor maps executor errors onto wire tokens.
func statusFor(err error) protocol.Status {
	switch {
	case errors.Is(err, protocol.ErrNoSuchEntry):
		return protocol.StatusNoSuchEntry
	case errors.Is(err, protocol.ErrInvalidInstruction):
		return protocol.StatusInvalidInstruction
	case errors.Is(err, protocol.ErrNotAuthorized):
		return protocol.StatusNotAuthorized
	}
	return protocol.StatusStorageError
}
