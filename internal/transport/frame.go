// internal/transport/frame.go
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the big-endian length prefix in front of every payload.
	HeaderSize = 2
	// MaxPayload is the largest payload a 2-byte prefix can describe.
	MaxPayload = 1<<16 - 1
	// MaxBuffered caps the unframed bytes held for one connection.
	MaxBuffered = 1000 * 1000
)

var (
	ErrFrameTooLarge  = errors.New("frame payload too large")
	ErrBufferExceeded = errors.New("receive buffer exceeded")
)

// EncodeFrame prefixes payload with its 2-byte big-endian length.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	out := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint16(out, uint16(len(payload)))
	copy(out[HeaderSize:], payload)
	return out, nil
}

// Deframer accumulates received bytes and hands out complete payloads.
type Deframer struct {
	buf   []byte
	limit int
}

// NewDeframer returns a deframer that fails once more than limit bytes are
// waiting to be framed. A non-positive limit means MaxBuffered.
func NewDeframer(limit int) *Deframer {
	if limit <= 0 {
		limit = MaxBuffered
	}
	return &Deframer{limit: limit}
}

// Push appends received bytes.
func (d *Deframer) Push(b []byte) error {
	d.buf = append(d.buf, b...)
	if len(d.buf) > d.limit {
		return fmt.Errorf("%w: %d > %d bytes", ErrBufferExceeded, len(d.buf), d.limit)
	}
	return nil
}

// Next pops the next complete payload. ok is false until a whole frame is buffered.
func (d *Deframer) Next() (payload []byte, ok bool) {
	if len(d.buf) < HeaderSize {
		return nil, false
	}
	n := int(binary.BigEndian.Uint16(d.buf))
	if len(d.buf) < HeaderSize+n {
		return nil, false
	}
	payload = make([]byte, n)
	copy(payload, d.buf[HeaderSize:HeaderSize+n])
	d.buf = d.buf[HeaderSize+n:]
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return payload, true
}

// Buffered reports how many bytes are waiting.
func (d *Deframer) Buffered() int {
	return len(d.buf)
}
