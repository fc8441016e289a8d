package transport

import "github.com/samber/oops"

var (
	// ErrOversizedFrame is returned when a length prefix exceeds
	// MaxFrameSize. The frame is rejected before any buffer is allocated.
	ErrOversizedFrame = oops.Errorf("ezdb/transport: frame exceeds maximum size")
	// ErrTimeout is returned when a read deadline expires. The
	// connection is dead but a fresh one may be opened.
	ErrTimeout = oops.Errorf("ezdb/transport: read timed out")
	// ErrClosed is returned when sending or receiving on a closed connection.
	ErrClosed = oops.Errorf("ezdb/transport: connection closed")
	// ErrDecompress is returned when a compressed payload cannot be
	// inflated or would inflate past MaxPayloadSize.
	ErrDecompress = oops.Errorf("ezdb/transport: decompression failure")
)
