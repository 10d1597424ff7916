package transport

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func nextEvent(t *testing.T, l *Listener) Event {
	t.Helper()
	select {
	case ev := <-l.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func startLoopback(t *testing.T) *Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	l := Serve(ln, testLogger())
	t.Cleanup(func() { l.Close() })
	return l
}

func TestListenerDeliversFramesInOrder(t *testing.T) {
	l := startLoopback(t)

	client, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	opened := nextEvent(t, l)
	require.Equal(t, EventOpened, opened.Kind)
	require.NotNil(t, opened.Conn)

	one, _ := EncodeFrame([]byte("one"))
	two, _ := EncodeFrame([]byte("two"))
	_, err = client.Write(append(one, two...))
	require.NoError(t, err)

	ev := nextEvent(t, l)
	require.Equal(t, EventFrame, ev.Kind)
	assert.Equal(t, opened.Conn.ID, ev.Conn.ID)
	assert.Equal(t, "one", string(ev.Payload))
	ev = nextEvent(t, l)
	assert.Equal(t, "two", string(ev.Payload))

	client.Close()
	ev = nextEvent(t, l)
	assert.Equal(t, EventClosed, ev.Kind)
	assert.NoError(t, ev.Err)
}

func TestConnSendWritesFrames(t *testing.T) {
	l := startLoopback(t)

	client, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	opened := nextEvent(t, l)
	frame, _ := EncodeFrame([]byte("hello"))
	require.NoError(t, opened.Conn.Send(frame))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	got := make([]byte, len(frame))
	_, err = io.ReadFull(client, got)
	require.NoError(t, err)
	assert.Equal(t, frame, got)
}

func TestConnSendAfterClose(t *testing.T) {
	l := startLoopback(t)

	client, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	opened := nextEvent(t, l)
	require.NoError(t, opened.Conn.Close())
	assert.ErrorIs(t, opened.Conn.Send([]byte{0, 0}), ErrClosed)

	ev := nextEvent(t, l)
	assert.Equal(t, EventClosed, ev.Kind)
}

func TestConnQueueFull(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	c := newConn(server, testLogger())
	defer c.Close()

	// no writer goroutine: the queue only fills
	for i := 0; i < sendQueueLen; i++ {
		require.NoError(t, c.Send([]byte{0, 0}))
	}
	assert.ErrorIs(t, c.Send([]byte{0, 0}), ErrQueueFull)
}

func TestOversizedBufferClosesConnection(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	c := newConn(server, testLogger())
	c.bufferLimit = 100

	events := make(chan Event, 4)
	go c.readLoop(func(ev Event) bool {
		events <- ev
		return true
	})

	// a header announcing a large frame, then more bytes than the cap
	go func() {
		chunk := make([]byte, 200)
		chunk[0], chunk[1] = 0xff, 0xff
		client.Write(chunk)
	}()

	select {
	case ev := <-events:
		assert.Equal(t, EventClosed, ev.Kind)
		assert.ErrorIs(t, ev.Err, ErrBufferExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not closed")
	}
}

func TestTrackAfterCloseForgetsConn(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	l := Serve(ln, testLogger())
	require.NoError(t, l.Close())

	server, client := net.Pipe()
	defer client.Close()
	l.track(server)

	l.mu.Lock()
	assert.Empty(t, l.conns)
	l.mu.Unlock()

	_, err = client.Write([]byte{0})
	assert.Error(t, err, "the socket is closed")
}
