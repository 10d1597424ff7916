// internal/game/match.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/threecard/internal/cards"
	"github.com/jason-s-yu/threecard/internal/protocol"
)

const (
	// Ante is every seat's opening bet.
	Ante = 5
	// BetUnit is the granularity of raises.
	BetUnit = 5
	// BustNetWorth ends the match once any seat is at or below it.
	BustNetWorth = 5
)

// Settings are the match parameters fixed at server construction.
type Settings struct {
	ProfileIDs      []string
	InitNetWorth    int
	TurnTime        time.Duration
	MaxBet          int
	DeckCount       int
	RoundResultWait time.Duration
}

// Slot binds a preassigned profile to its seat and, after the handshake, to a
// live connection. Slots live for the whole process.
type Slot struct {
	ProfileID string
	Seat      int
	Conn      uuid.UUID
}

// Bound reports whether a connection has claimed the slot.
func (s *Slot) Bound() bool {
	return s.Conn != uuid.Nil
}

// Match is the authoritative game model. Only the active state mutates it.
type Match struct {
	ID       uuid.UUID
	Settings Settings
	Info     protocol.GameStateInfo
	Slots    []*Slot
	Round    int

	byProfile map[string]*Slot
	pile      *cards.Pile
	hands     [][]cards.Card
	actions   [][]protocol.GeneralAction

	// aggressorFirstTurn is true until the round's opening aggressor turn
	// has been offered.
	aggressorFirstTurn bool
}

// NewMatch builds the slots in profile order. pile may be nil for a
// time-seeded one.
func NewMatch(settings Settings, pile *cards.Pile) *Match {
	if pile == nil {
		pile = cards.NewPile()
	}
	n := len(settings.ProfileIDs)
	m := &Match{
		ID:        uuid.New(),
		Settings:  settings,
		Info:      protocol.NewGameStateInfo(n),
		Slots:     make([]*Slot, n),
		byProfile: make(map[string]*Slot, n),
		pile:      pile,
		hands:     make([][]cards.Card, n),
		actions:   make([][]protocol.GeneralAction, n),
	}
	for i, id := range settings.ProfileIDs {
		s := &Slot{ProfileID: id, Seat: i}
		m.Slots[i] = s
		m.byProfile[id] = s
	}
	return m
}

// SeatCount is the fixed number of seats.
func (m *Match) SeatCount() int {
	return len(m.Slots)
}

// SlotByProfile finds the slot preassigned to a profile.
func (m *Match) SlotByProfile(profileID string) (*Slot, bool) {
	s, ok := m.byProfile[profileID]
	return s, ok
}

// SlotByConn finds the slot a connection is bound to.
func (m *Match) SlotByConn(conn uuid.UUID) (*Slot, bool) {
	if conn == uuid.Nil {
		return nil, false
	}
	for _, s := range m.Slots {
		if s.Conn == conn {
			return s, true
		}
	}
	return nil, false
}

// AllBound reports whether every slot has a live connection.
func (m *Match) AllBound() bool {
	for _, s := range m.Slots {
		if !s.Bound() {
			return false
		}
	}
	return true
}

// Player returns the mutable wire record of a seat.
func (m *Match) Player(seat int) *protocol.PlayerInfo {
	return &m.Info.PlayerInfos[seat]
}

// Hand returns the cards dealt to a seat this round.
func (m *Match) Hand(seat int) []cards.Card {
	return m.hands[seat]
}

// InitNewRound reshuffles, antes every seat, deals three sorted cards each and
// hands dealer, aggressor and the first turn to dealer.
func (m *Match) InitNewRound(dealer int) {
	m.pile.Init(m.Settings.DeckCount, false)
	m.pile.Shuffle()
	m.aggressorFirstTurn = true
	m.Round++

	m.Info.Dealer = dealer
	m.Info.Aggressor = dealer
	m.Info.ActivePlayer = dealer

	for seat := range m.Info.PlayerInfos {
		hand := make([]cards.Card, cards.HandSize)
		for i := range hand {
			hand[i] = m.pile.MustDraw()
		}
		cards.SortCards(hand)
		m.hands[seat] = hand
		m.actions[seat] = nil

		p := m.Player(seat)
		p.Bet = Ante
		p.IsFolded = false
		p.MainHand = cards.Codes(hand)
		p.StateData = ""
		p.HiddenStateData = ""
	}
}

// HighestBet is the largest bet on the table.
func (m *Match) HighestBet() int {
	highest := 0
	for _, p := range m.Info.PlayerInfos {
		if p.Bet > highest {
			highest = p.Bet
		}
	}
	return highest
}

// MaxRaise is how far the highest bet may still grow: the configured max bet
// capped by every live seat's net worth, minus the current highest bet.
func (m *Match) MaxRaise() int {
	limit := m.Settings.MaxBet
	for _, p := range m.Info.PlayerInfos {
		if !p.IsFolded && p.NetWorth < limit {
			limit = p.NetWorth
		}
	}
	return limit - m.HighestBet()
}

// Unfolded counts seats still in the round.
func (m *Match) Unfolded() int {
	n := 0
	for _, p := range m.Info.PlayerInfos {
		if !p.IsFolded {
			n++
		}
	}
	return n
}

// nextUnfolded returns the first unfolded seat after seat, wrapping around.
// It returns seat itself when no other seat is unfolded.
func (m *Match) nextUnfolded(seat int) int {
	n := m.SeatCount()
	for i := 1; i <= n; i++ {
		next := (seat + i) % n
		if !m.Info.PlayerInfos[next].IsFolded {
			return next
		}
	}
	return seat
}

// LegalActions computes what a seat may do on a PlayersTurn.
//
//   - the active aggressor may raise or fold on the round's first turn, and
//     later raise (if there is room) or call a showdown;
//   - any other active seat may follow, raise (if there is room) or fold;
//   - seats not holding the turn may do nothing.
func LegalActions(seat, active, aggressor int, aggressorFirstTurn bool, raiseRoom int) []protocol.GeneralAction {
	actions := []protocol.GeneralAction{}
	if seat != active {
		return actions
	}
	canRaise := raiseRoom > 0
	if seat == aggressor {
		if aggressorFirstTurn {
			return append(actions, protocol.ActionRaiseBet, protocol.ActionFold)
		}
		if canRaise {
			actions = append(actions, protocol.ActionRaiseBet)
		}
		return append(actions, protocol.ActionShowdown)
	}
	actions = append(actions, protocol.ActionFollowBet)
	if canRaise {
		actions = append(actions, protocol.ActionRaiseBet)
	}
	return append(actions, protocol.ActionFold)
}

// refreshActions recomputes every seat's legal actions and publishes them as
// state data. Offering the aggressor its opening turn consumes that turn.
func (m *Match) refreshActions() {
	room := m.MaxRaise()
	first := m.aggressorFirstTurn
	for seat := range m.Info.PlayerInfos {
		actions := LegalActions(seat, m.Info.ActivePlayer, m.Info.Aggressor, first, room)
		m.actions[seat] = actions
		m.Player(seat).StateData = protocol.MustMarshal(protocol.PlayersTurnStateData{GeneralActions: actions})
	}
	if m.Info.ActivePlayer == m.Info.Aggressor {
		m.aggressorFirstTurn = false
	}
}

// allowed reports whether action is in the seat's current legal set.
func (m *Match) allowed(seat int, action protocol.GeneralAction) bool {
	return protocol.PlayersTurnStateData{GeneralActions: m.actions[seat]}.Has(action)
}

// ValidRaise checks a raise increment: positive, a multiple of BetUnit and
// within MaxRaise.
func (m *Match) ValidRaise(increment int) bool {
	return increment > 0 && increment%BetUnit == 0 && increment <= m.MaxRaise()
}

// resetTimer starts a wall-clock timer visible to clients.
func (m *Match) resetTimer(now time.Time, d time.Duration) {
	m.Info.TimerStartTimestampMs = now.UnixMilli()
	m.Info.TimerIntervalMs = d.Milliseconds()
}

// timerElapsed reports whether the current timer has run out at now.
func (m *Match) timerElapsed(now time.Time) bool {
	return now.UnixMilli() >= m.Info.TimerStartTimestampMs+m.Info.TimerIntervalMs
}
