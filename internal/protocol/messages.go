// internal/protocol/messages.go
package protocol

import "fmt"

// GameState tags the active state of the match. Values are fixed on the wire.
type GameState int

const (
	StateUnknown GameState = iota
	StateWaitingForPlayers
	StatePlayersTurn
	StateRoundResult
	StateMatchResult
)

func (s GameState) String() string {
	switch s {
	case StateWaitingForPlayers:
		return "WaitingForPlayers"
	case StatePlayersTurn:
		return "PlayersTurn"
	case StateRoundResult:
		return "RoundResult"
	case StateMatchResult:
		return "MatchResult"
	case StateUnknown:
		return "Unknown"
	}
	return fmt.Sprintf("GameState(%d)", int(s))
}

// GeneralAction is a betting move a seat may take during PlayersTurn.
type GeneralAction int

const (
	ActionUnknown GeneralAction = iota
	ActionFollowBet
	ActionRaiseBet
	ActionFold
	ActionShowdown
)

func (a GeneralAction) String() string {
	switch a {
	case ActionFollowBet:
		return "FollowBet"
	case ActionRaiseBet:
		return "RaiseBet"
	case ActionFold:
		return "Fold"
	case ActionShowdown:
		return "Showdown"
	case ActionUnknown:
		return "Unknown"
	}
	return fmt.Sprintf("GeneralAction(%d)", int(a))
}

// Request type names, as carried in Request.Type.
const (
	TypeHandshake       = "HandshakeRequest"
	TypeUpdateGameState = "UpdateGameStateRequest"
	TypeDoGeneralAction = "DoGeneralActionRequest"
)

type HandshakeRequest struct {
	ProfileID string `json:"ProfileId"`
	Name      string `json:"Name"`
}

type HandshakeResponse struct {
	Success bool `json:"Success"`
}

// UpdateGameStateRequest is the server push carrying one recipient's snapshot.
type UpdateGameStateRequest struct {
	ServerTimestampMs int64         `json:"ServerTimestampMs"`
	GameStateInfo     GameStateInfo `json:"GameStateInfo"`
}

type UpdateGameStateResponse struct {
	Success bool `json:"Success"`
}

// DoGeneralActionRequest is sent by the seat holding the turn. Data carries a
// RaiseBetData for ActionRaiseBet and is empty otherwise.
type DoGeneralActionRequest struct {
	Action GeneralAction `json:"Action"`
	Data   string        `json:"Data"`
}

type DoGeneralActionResponse struct {
	Success bool   `json:"Success"`
	Data    string `json:"Data"`
}

// RaiseBetData holds the raise increment, a positive multiple of 5.
type RaiseBetData struct {
	Bet int `json:"Bet"`
}

// PlayersTurnStateData lists what a seat may do on the current turn.
type PlayersTurnStateData struct {
	GeneralActions []GeneralAction `json:"GeneralActions"`
}

// Has reports whether action is among the legal actions.
func (d PlayersTurnStateData) Has(action GeneralAction) bool {
	for _, a := range d.GeneralActions {
		if a == action {
			return true
		}
	}
	return false
}

// RoundResultStateData reveals a seat's hand and whether it took the pot.
type RoundResultStateData struct {
	IsWinner bool     `json:"IsWinner"`
	Hand     []string `json:"Hand"`
}
