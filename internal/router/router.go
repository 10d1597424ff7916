// internal/router/router.go
package router

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/threecard/internal/protocol"
	"github.com/sirupsen/logrus"
)

// ErrNoResponse is returned by a Handler when the request type is not valid in
// the current state. The router still answers, with empty data.
var ErrNoResponse = errors.New("request not valid in current state")

// Result is the two-phase outcome of handling a request: Data is sent back
// first, then Effect (if any) runs. State changes that trigger further pushes
// belong in Effect so the requester always sees its response first.
type Result struct {
	Data   string
	Effect func()
}

// Handler answers inbound requests. Any error other than ErrNoResponse is a
// decode fault and costs the connection.
type Handler interface {
	HandleRequest(conn uuid.UUID, typeName, data string) (Result, error)
}

// Outbox delivers an encoded payload to a connection.
type Outbox interface {
	Send(conn uuid.UUID, payload []byte) error
}

// ResponseFunc is invoked with the peer's response to a request we sent.
type ResponseFunc func(resp *protocol.Response)

type pendingEntry struct {
	conn       uuid.UUID
	typeName   string
	onResponse ResponseFunc
}

// Router correlates requests and responses for every connection. It is owned
// by the server loop and is not safe for concurrent use.
type Router struct {
	seq     int64
	pending map[int64]pendingEntry
	handler Handler
	out     Outbox
	log     logrus.FieldLogger
}

func New(out Outbox, log logrus.FieldLogger) *Router {
	return &Router{
		pending: make(map[int64]pendingEntry),
		out:     out,
		log:     log,
	}
}

// SetHandler installs the request handler. It is separate from New because the
// game machine needs the router to push state before it can be handed over.
func (r *Router) SetHandler(h Handler) {
	r.handler = h
}

// SendRequest sends a request with the next sequence number and remembers
// onResponse until the matching response arrives or conn goes away.
// A nil onResponse is fire-and-forget.
func (r *Router) SendRequest(conn uuid.UUID, typeName, data string, onResponse ResponseFunc) error {
	seq := r.seq
	r.seq++

	payload, err := protocol.EncodeRequest(seq, typeName, data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", typeName, err)
	}
	r.pending[seq] = pendingEntry{conn: conn, typeName: typeName, onResponse: onResponse}
	if err := r.out.Send(conn, payload); err != nil {
		delete(r.pending, seq)
		return fmt.Errorf("send %s #%d: %w", typeName, seq, err)
	}
	return nil
}

// HandleFrame decodes one frame from conn and dispatches it. An error means the
// frame could not be decoded or answered and the connection should be dropped;
// nothing has been mutated in that case.
func (r *Router) HandleFrame(conn uuid.UUID, payload []byte) error {
	env, err := protocol.DecodeEnvelope(payload)
	if err != nil {
		return err
	}
	if env.Request != nil {
		return r.handleRequest(conn, env.Request)
	}
	r.handleResponse(conn, env.Response)
	return nil
}

func (r *Router) handleRequest(conn uuid.UUID, req *protocol.Request) error {
	log := r.log.WithFields(logrus.Fields{"conn": conn, "seq": req.Seq, "type": req.Type})
	if r.handler == nil {
		return fmt.Errorf("no handler for %s", req.Type)
	}

	res, err := r.handler.HandleRequest(conn, req.Type, req.Data)
	switch {
	case errors.Is(err, ErrNoResponse):
		log.Warn("request not valid in current state")
		res = Result{}
	case err != nil:
		return fmt.Errorf("handle %s #%d: %w", req.Type, req.Seq, err)
	}

	payload, err := protocol.EncodeResponse(req.Seq, res.Data)
	if err != nil {
		return fmt.Errorf("encode response #%d: %w", req.Seq, err)
	}
	if err := r.out.Send(conn, payload); err != nil {
		return fmt.Errorf("send response #%d: %w", req.Seq, err)
	}
	log.Debug("request answered")

	if res.Effect != nil {
		res.Effect()
	}
	return nil
}

func (r *Router) handleResponse(conn uuid.UUID, resp *protocol.Response) {
	entry, ok := r.pending[resp.Seq]
	if !ok {
		r.log.WithFields(logrus.Fields{"conn": conn, "seq": resp.Seq}).Warn("response for unknown seq")
		return
	}
	if entry.conn != conn {
		r.log.WithFields(logrus.Fields{"conn": conn, "seq": resp.Seq, "owner": entry.conn}).
			Warn("response from a connection that did not receive the request")
		return
	}
	delete(r.pending, resp.Seq)
	if entry.onResponse != nil {
		entry.onResponse(resp)
	}
}

// DropConn forgets every pending request sent to conn and reports how many
// were discarded. Their callbacks are never invoked.
func (r *Router) DropConn(conn uuid.UUID) int {
	n := 0
	for seq, entry := range r.pending {
		if entry.conn == conn {
			delete(r.pending, seq)
			n++
		}
	}
	return n
}

// Pending reports the number of requests awaiting a response.
func (r *Router) Pending() int {
	return len(r.pending)
}
