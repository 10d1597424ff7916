// internal/transport/conn.go
package transport

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrClosed    = errors.New("connection closed")
	ErrQueueFull = errors.New("send queue full")
)

const (
	readChunk    = 2048
	sendQueueLen = 256
)

// Conn is one client socket: a reader that deframes into events and a writer
// that drains the outbound queue in order.
type Conn struct {
	ID uuid.UUID

	nc     net.Conn
	remote string
	out    chan []byte
	log    logrus.FieldLogger

	bufferLimit int

	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(nc net.Conn, log logrus.FieldLogger) *Conn {
	id := uuid.New()
	remote := nc.RemoteAddr().String()
	return &Conn{
		ID:     id,
		nc:     nc,
		remote: remote,
		out:    make(chan []byte, sendQueueLen),
		log:    log.WithFields(logrus.Fields{"conn": id, "remote": remote}),
		closed: make(chan struct{}),

		bufferLimit: MaxBuffered,
	}
}

// RemoteAddr is the peer address captured at accept time.
func (c *Conn) RemoteAddr() string {
	return c.remote
}

// Send queues an already framed message. It never blocks: a peer that stops
// reading fills its queue and gets ErrQueueFull.
func (c *Conn) Send(frame []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.out <- frame:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close shuts the socket. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.nc.Close()
	})
	return err
}

// Done is closed once Close has been called.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

// readLoop reads into the receive buffer and emits each complete frame, in
// order, before reading again. It always ends with exactly one EventClosed.
func (c *Conn) readLoop(emit func(Event) bool) {
	d := NewDeframer(c.bufferLimit)
	buf := make([]byte, readChunk)
	var cause error
read:
	for {
		n, err := c.nc.Read(buf)
		if n > 0 {
			if cause = d.Push(buf[:n]); cause != nil {
				c.log.WithField("buffered", d.Buffered()).Warn("receive buffer limit exceeded")
				break read
			}
			for {
				payload, ok := d.Next()
				if !ok {
					break
				}
				if !emit(Event{Kind: EventFrame, Conn: c, Payload: payload}) {
					c.Close()
					return
				}
			}
		}
		if err != nil {
			cause = err
			break read
		}
	}
	c.Close()
	if errors.Is(cause, io.EOF) || errors.Is(cause, net.ErrClosed) {
		cause = nil
	}
	emit(Event{Kind: EventClosed, Conn: c, Err: cause})
}

// writeLoop sends queued frames until the connection closes. net.Conn.Write
// only returns early on error, so an unsent remainder means the socket failed.
func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.closed:
			return
		case frame := <-c.out:
			if _, err := c.nc.Write(frame); err != nil {
				c.log.WithError(err).Debug("write failed")
				c.Close()
				return
			}
		}
	}
}
