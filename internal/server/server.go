// internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/threecard/internal/config"
	"github.com/jason-s-yu/threecard/internal/game"
	"github.com/jason-s-yu/threecard/internal/history"
	"github.com/jason-s-yu/threecard/internal/logging"
	"github.com/jason-s-yu/threecard/internal/router"
	"github.com/jason-s-yu/threecard/internal/transport"
	"github.com/sirupsen/logrus"
)

// GameServer runs one match on one TCP port. All sockets, the router and the
// match are owned by a single loop goroutine; Start and Stop may be called
// from any other goroutine.
type GameServer struct {
	cfg config.Config
	log logrus.FieldLogger

	router  *router.Router
	machine *game.Machine

	// loop-owned
	conns  map[uuid.UUID]*transport.Conn
	doomed map[uuid.UUID]error

	mu      sync.Mutex
	addr    net.Addr
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New validates cfg and builds the match. pub may be nil to disable history.
func New(cfg config.Config, log logrus.FieldLogger, pub history.Publisher) (*GameServer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &GameServer{
		cfg:    cfg,
		log:    log,
		conns:  make(map[uuid.UUID]*transport.Conn),
		doomed: make(map[uuid.UUID]error),
	}
	s.router = router.New(s, log.WithField("component", "router"))
	match := game.NewMatch(cfg.GameSettings(), nil)
	s.machine = game.NewMachine(match, s.router, pub, log.WithField("component", "game"))
	s.router.SetHandler(s.machine)
	return s, nil
}

// Start binds the port, enters WaitingForPlayers and runs the loop in the
// background. A bind failure here is returned; later listener failures are
// retried by the loop itself.
func (s *GameServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("server already started")
	}

	ln, err := transport.Listen(s.cfg.Port, s.cfg.IPv6, s.log)
	if err != nil {
		return err
	}
	s.addr = ln.Addr()
	s.started = true

	s.machine.Start()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, ln)

	s.log.WithField("addr", s.addr).Info("server started")
	return nil
}

// Stop asks the loop to exit and waits for it. Every client is disconnected.
func (s *GameServer) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("server stopped")
}

// Addr is the currently bound listen address, nil before Start.
func (s *GameServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *GameServer) setAddr(a net.Addr) {
	s.mu.Lock()
	s.addr = a
	s.mu.Unlock()
}

// run serves one listener generation after another until ctx ends.
func (s *GameServer) run(ctx context.Context, ln *transport.Listener) {
	defer close(s.done)
	for {
		err := s.serve(ctx, ln)
		ln.Close()
		s.dropAll()
		if ctx.Err() != nil {
			return
		}
		s.log.WithError(err).Error("listener failed, restarting")

		ln = s.relisten(ctx)
		if ln == nil {
			return
		}
		s.setAddr(ln.Addr())
		s.log.WithField("addr", ln.Addr()).Info("listener restarted")
	}
}

// relisten retries binding every RestartDelay. It returns nil once ctx ends.
func (s *GameServer) relisten(ctx context.Context) *transport.Listener {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.RestartDelay):
		}
		ln, err := transport.Listen(s.cfg.Port, s.cfg.IPv6, s.log)
		if err == nil {
			return ln
		}
		s.log.WithError(err).Warn("rebind failed")
	}
}

// serve pumps one listener's events and the game tick. A panic from the game
// is turned into an error so the listener is rebuilt.
func (s *GameServer) serve(ctx context.Context, ln *transport.Listener) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("server loop panic: %v", r)
		}
	}()

	tick := s.cfg.Tick
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-ln.Events():
			if err := s.handleEvent(ev); err != nil {
				return err
			}
		case <-ticker.C:
			s.machine.Update()
		}
		s.sweep()
	}
}

func (s *GameServer) handleEvent(ev transport.Event) error {
	switch ev.Kind {
	case transport.EventOpened:
		s.conns[ev.Conn.ID] = ev.Conn
		logging.LogConnect(s.log, ev.Conn.ID, ev.Conn.RemoteAddr())
	case transport.EventFrame:
		id := ev.Conn.ID
		if _, ok := s.conns[id]; !ok {
			return nil
		}
		if _, ok := s.doomed[id]; ok {
			return nil
		}
		if err := s.router.HandleFrame(id, ev.Payload); err != nil {
			s.doom(id, err)
		}
	case transport.EventClosed:
		s.doom(ev.Conn.ID, ev.Err)
	case transport.EventListenerFailed:
		return ev.Err
	}
	return nil
}

// Send implements router.Outbox. A connection whose queue cannot take the
// frame is dropped on the next sweep.
func (s *GameServer) Send(conn uuid.UUID, payload []byte) error {
	c, ok := s.conns[conn]
	if !ok {
		return transport.ErrClosed
	}
	frame, err := transport.EncodeFrame(payload)
	if err != nil {
		return err
	}
	if err := c.Send(frame); err != nil {
		s.doom(conn, err)
		return err
	}
	return nil
}

func (s *GameServer) doom(conn uuid.UUID, err error) {
	if _, ok := s.doomed[conn]; !ok {
		s.doomed[conn] = err
	}
}

// sweep closes doomed connections and forgets everything tied to them.
func (s *GameServer) sweep() {
	for id, cause := range s.doomed {
		if c, ok := s.conns[id]; ok {
			c.Close()
			delete(s.conns, id)
			logging.LogDisconnect(s.log, id, c.RemoteAddr(), cause)
		}
		if n := s.router.DropConn(id); n > 0 {
			s.log.WithFields(logrus.Fields{"conn": id, "pending": n, "remaining": s.router.Pending()}).Debug("dropped pending requests")
		}
		s.machine.Disconnect(id)
		delete(s.doomed, id)
	}
}

func (s *GameServer) dropAll() {
	for id := range s.conns {
		s.doom(id, transport.ErrClosed)
	}
	s.sweep()
}
