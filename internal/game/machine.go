// internal/game/machine.go
package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/threecard/internal/history"
	"github.com/jason-s-yu/threecard/internal/protocol"
	"github.com/jason-s-yu/threecard/internal/router"
	"github.com/sirupsen/logrus"
)

// Sender pushes a request to a connection and routes the reply back.
// *router.Router satisfies it.
type Sender interface {
	SendRequest(conn uuid.UUID, typeName, data string, onResponse router.ResponseFunc) error
}

// State is one phase of the match. Handlers run on the server loop only.
type State interface {
	Enter()
	Update()
	Leave()
	// HandleRequest answers a request from a connection bound to slot (nil if
	// unbound). Returning router.ErrNoResponse marks the type as not valid here.
	HandleRequest(slot *Slot, typeName, data string) (router.Result, error)
}

// Machine drives the match through its states and answers client requests.
type Machine struct {
	Match *Match

	sender  Sender
	history history.Publisher
	log     logrus.FieldLogger
	now     func() time.Time

	states  map[protocol.GameState]State
	current State
}

// NewMachine wires the fixed state table. pub may be nil.
func NewMachine(match *Match, sender Sender, pub history.Publisher, log logrus.FieldLogger) *Machine {
	if pub == nil {
		pub = history.Nop{}
	}
	m := &Machine{
		Match:   match,
		sender:  sender,
		history: pub,
		log:     log.WithField("match", match.ID),
		now:     time.Now,
	}
	m.states = map[protocol.GameState]State{
		protocol.StateWaitingForPlayers: &waitingState{m: m},
		protocol.StatePlayersTurn:       &playersTurnState{m: m},
		protocol.StateRoundResult:       &roundResultState{m: m},
		protocol.StateMatchResult:       &matchResultState{m: m},
	}
	return m
}

// SetClock replaces the wall clock used for timers and push timestamps.
func (m *Machine) SetClock(now func() time.Time) {
	m.now = now
}

// Start enters WaitingForPlayers.
func (m *Machine) Start() {
	m.Transition(protocol.StateWaitingForPlayers)
}

// State is the current state tag.
func (m *Machine) State() protocol.GameState {
	return m.Match.Info.CurrentState
}

// Update polls the active state once.
func (m *Machine) Update() {
	if m.current != nil {
		m.current.Update()
	}
}

// Transition leaves the current state, retags the match and enters next.
// A tag with no state is a programming error.
func (m *Machine) Transition(next protocol.GameState) {
	st, ok := m.states[next]
	if !ok {
		panic(fmt.Sprintf("game: no state registered for %s", next))
	}
	prev := m.Match.Info.CurrentState
	if m.current != nil {
		m.current.Leave()
	}
	m.Match.Info.CurrentState = next
	m.current = st
	m.log.WithFields(logrus.Fields{"from": prev, "to": next, "round": m.Match.Round}).Debug("state transition")
	st.Enter()
}

// HandleRequest implements router.Handler. Handshakes are answered the same
// way in every state; everything else goes to the active state.
func (m *Machine) HandleRequest(conn uuid.UUID, typeName, data string) (router.Result, error) {
	if typeName == protocol.TypeHandshake {
		return m.handshake(conn, data)
	}
	if m.current == nil {
		return router.Result{}, router.ErrNoResponse
	}
	slot, _ := m.Match.SlotByConn(conn)
	return m.current.HandleRequest(slot, typeName, data)
}

func (m *Machine) handshake(conn uuid.UUID, data string) (router.Result, error) {
	var req protocol.HandshakeRequest
	if err := protocol.Unmarshal(data, &req); err != nil {
		return router.Result{}, err
	}
	log := m.log.WithFields(logrus.Fields{"conn": conn, "profile": req.ProfileID})

	slot, ok := m.Match.SlotByProfile(req.ProfileID)
	if !ok {
		log.Warn("handshake with unknown profile")
		return router.Result{Data: protocol.MustMarshal(protocol.HandshakeResponse{Success: false})}, nil
	}
	if prev, ok := m.Match.SlotByConn(conn); ok && prev != slot {
		prev.Conn = uuid.Nil
	}
	if slot.Bound() && slot.Conn != conn {
		log.WithField("previous", slot.Conn).Info("profile rebound to a new connection")
	}
	slot.Conn = conn
	m.Match.Player(slot.Seat).Name = req.Name
	log.WithFields(logrus.Fields{"seat": slot.Seat, "name": req.Name}).Info("player joined")

	return router.Result{
		Data: protocol.MustMarshal(protocol.HandshakeResponse{Success: true}),
		Effect: func() {
			if m.State() == protocol.StateWaitingForPlayers && m.Match.AllBound() {
				m.Match.InitNewRound(0)
				m.Transition(protocol.StatePlayersTurn)
				return
			}
			m.Broadcast()
		},
	}, nil
}

// Disconnect unbinds whatever slot conn held. A later handshake may claim it.
func (m *Machine) Disconnect(conn uuid.UUID) {
	slot, ok := m.Match.SlotByConn(conn)
	if !ok {
		return
	}
	slot.Conn = uuid.Nil
	m.log.WithFields(logrus.Fields{"conn": conn, "seat": slot.Seat, "profile": slot.ProfileID}).Info("player left")
}

// Broadcast pushes each bound seat its own redacted snapshot.
func (m *Machine) Broadcast() {
	ts := m.now().UnixMilli()
	for _, slot := range m.Match.Slots {
		if !slot.Bound() {
			continue
		}
		push := protocol.UpdateGameStateRequest{
			ServerTimestampMs: ts,
			GameStateInfo:     protocol.Snapshot(m.Match.Info, slot.Seat),
		}
		if err := m.sender.SendRequest(slot.Conn, protocol.TypeUpdateGameState, protocol.MustMarshal(push), nil); err != nil {
			m.log.WithError(err).WithFields(logrus.Fields{"conn": slot.Conn, "seat": slot.Seat}).Warn("state push failed")
		}
	}
}

// ResetTimer starts a client-visible timer of length d from now.
func (m *Machine) ResetTimer(d time.Duration) {
	m.Match.resetTimer(m.now(), d)
}

// TimerElapsed reports whether the current timer has run out.
func (m *Machine) TimerElapsed() bool {
	return m.Match.timerElapsed(m.now())
}
