package transport

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
)

// Compress deflates data and prepends its uncompressed size as an
// 8 byte little endian integer, so the receiver can bound inflation
// before doing any work.
func Compress(data []byte) ([]byte, error) {
	if len(data) > MaxPayloadSize {
		return nil, ErrOversizedFrame
	}
	var buf bytes.Buffer
	var sizePrefix [8]byte
	binary.LittleEndian.PutUint64(sizePrefix[:], uint64(len(data)))
	buf.Write(sizePrefix[:])

	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress inflates a buffer produced by Compress, refusing payloads
// that claim to inflate past MaxPayloadSize.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, ErrDecompress
	}
	size := binary.LittleEndian.Uint64(data[:8])
	if size > MaxPayloadSize {
		return nil, ErrDecompress
	}

	r, err := zlib.NewReader(bytes.NewReader(data[8:]))
	if err != nil {
		return nil, ErrDecompress
	}
	defer r.Close()

	out := make([]byte, 0, size)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, io.LimitReader(r, int64(size)+1)); err != nil {
		return nil, ErrDecompress
	}
	if uint64(buf.Len()) != size {
		return nil, ErrDecompress
	}
	return buf.Bytes(), nil
}
