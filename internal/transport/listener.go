// internal/transport/listener.go
package transport

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventKind tags what happened on the listener or one of its connections.
type EventKind int

const (
	EventOpened EventKind = iota
	EventFrame
	EventClosed
	EventListenerFailed
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventFrame:
		return "frame"
	case EventClosed:
		return "closed"
	case EventListenerFailed:
		return "listener_failed"
	}
	return "unknown"
}

// Event is delivered to the single loop that owns all game state. Frames of one
// connection arrive in the order they were received.
type Event struct {
	Kind    EventKind
	Conn    *Conn
	Payload []byte
	Err     error
}

// Listener accepts client sockets and fans their traffic into one event channel.
type Listener struct {
	ln     net.Listener
	events chan Event
	log    logrus.FieldLogger

	mu    sync.Mutex
	conns map[*Conn]struct{}

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// Listen binds the TCP port on all interfaces. ipv6 selects tcp6 over tcp4.
func Listen(port int, ipv6 bool, log logrus.FieldLogger) (*Listener, error) {
	network, host := "tcp4", "0.0.0.0"
	if ipv6 {
		network, host = "tcp6", "::"
	}
	ln, err := net.Listen(network, net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", port, err)
	}
	return Serve(ln, log), nil
}

// Serve wraps an existing listener and starts accepting.
func Serve(ln net.Listener, log logrus.FieldLogger) *Listener {
	l := &Listener{
		ln:     ln,
		events: make(chan Event, 64),
		log:    log,
		conns:  make(map[*Conn]struct{}),
		done:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.acceptLoop()
	return l
}

// Events is the channel the owning loop drains.
func (l *Listener) Events() <-chan Event {
	return l.events
}

func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting, closes every connection and waits for the
// per-connection goroutines to exit.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.ln.Close()
		l.mu.Lock()
		for c := range l.conns {
			c.Close()
		}
		l.mu.Unlock()
		l.wg.Wait()
	})
	return err
}

func (l *Listener) emit(ev Event) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.events <- ev:
		return true
	case <-l.done:
		return false
	}
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		nc, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.done:
				return
			default:
			}
			if !errors.Is(err, net.ErrClosed) {
				l.emit(Event{Kind: EventListenerFailed, Err: err})
			}
			return
		}
		l.track(nc)
	}
}

// track registers the socket and starts its reader and writer. The opened
// event is emitted before the reader can emit any frame.
func (l *Listener) track(nc net.Conn) {
	c := newConn(nc, l.log)
	l.mu.Lock()
	l.conns[c] = struct{}{}
	l.mu.Unlock()

	if !l.emit(Event{Kind: EventOpened, Conn: c}) {
		l.mu.Lock()
		delete(l.conns, c)
		l.mu.Unlock()
		c.Close()
		return
	}

	l.wg.Add(2)
	go func() {
		defer l.wg.Done()
		c.writeLoop()
	}()
	go func() {
		defer l.wg.Done()
		c.readLoop(l.emit)
		l.mu.Lock()
		delete(l.conns, c)
		l.mu.Unlock()
	}()
}
