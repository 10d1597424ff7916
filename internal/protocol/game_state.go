// internal/protocol/game_state.go
package protocol

// NoSeat marks an unset dealer, aggressor or active seat.
const NoSeat = -1

// PlayerInfo is one seat of the authoritative state.
type PlayerInfo struct {
	Name     string   `json:"Name"`
	NetWorth int      `json:"NetWorth"`
	Bet      int      `json:"Bet"`
	IsFolded bool     `json:"IsFolded"`
	MainHand []string `json:"MainHand"`

	// StateData is the JSON of the active state's per-seat payload
	// (PlayersTurnStateData, RoundResultStateData) and is visible to everyone.
	StateData string `json:"StateData"`
	// HiddenStateData is only ever sent to the seat itself.
	HiddenStateData string `json:"HiddenStateData"`
}

// Copy returns a deep copy.
func (p PlayerInfo) Copy() PlayerInfo {
	out := p
	out.MainHand = append([]string{}, p.MainHand...)
	return out
}

// GameStateInfo is the single authoritative snapshot of a match.
// PlayerID is only meaningful on pushed copies: it names the recipient's seat.
type GameStateInfo struct {
	CurrentState          GameState    `json:"CurrentState"`
	PlayerID              int          `json:"PlayerId"`
	PlayerInfos           []PlayerInfo `json:"PlayerInfos"`
	Dealer                int          `json:"Dealer"`
	Aggressor             int          `json:"Aggressor"`
	ActivePlayer          int          `json:"ActivePlayer"`
	TimerStartTimestampMs int64        `json:"TimerStartTimestampMs"`
	TimerIntervalMs       int64        `json:"TimerIntervalMs"`
}

// NewGameStateInfo builds the pre-match state for seatCount seats.
func NewGameStateInfo(seatCount int) GameStateInfo {
	info := GameStateInfo{
		CurrentState:          StateUnknown,
		PlayerID:              NoSeat,
		PlayerInfos:           make([]PlayerInfo, seatCount),
		Dealer:                NoSeat,
		Aggressor:             NoSeat,
		ActivePlayer:          NoSeat,
		TimerStartTimestampMs: -1,
		TimerIntervalMs:       -1,
	}
	for i := range info.PlayerInfos {
		info.PlayerInfos[i] = PlayerInfo{NetWorth: -1, Bet: -1, MainHand: []string{}}
	}
	return info
}

// Copy returns a deep copy.
func (g GameStateInfo) Copy() GameStateInfo {
	out := g
	out.PlayerInfos = make([]PlayerInfo, len(g.PlayerInfos))
	for i, p := range g.PlayerInfos {
		out.PlayerInfos[i] = p.Copy()
	}
	return out
}

// Snapshot derives the copy pushed to the player in seat. Seats are rotated so
// the recipient sits at index 0, with dealer, aggressor and active seat rotated
// the same way. Every other seat loses its hand and hidden state data.
// g itself is never modified.
func Snapshot(g GameStateInfo, seat int) GameStateInfo {
	n := len(g.PlayerInfos)
	out := g
	out.PlayerID = 0
	out.PlayerInfos = make([]PlayerInfo, n)
	for i := 0; i < n; i++ {
		src := (seat + i) % n
		p := g.PlayerInfos[src].Copy()
		if src != seat {
			p.MainHand = []string{}
			p.HiddenStateData = ""
		}
		out.PlayerInfos[i] = p
	}
	out.Dealer = RelabelSeat(g.Dealer, seat, n)
	out.Aggressor = RelabelSeat(g.Aggressor, seat, n)
	out.ActivePlayer = RelabelSeat(g.ActivePlayer, seat, n)
	return out
}

// RelabelSeat maps an absolute seat index into the frame where viewer is seat 0.
// NoSeat stays NoSeat.
func RelabelSeat(idx, viewer, n int) int {
	if idx < 0 || n == 0 {
		return NoSeat
	}
	return ((idx-viewer)%n + n) % n
}
