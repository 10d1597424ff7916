// internal/history/history.go
package history

import (
	"github.com/google/uuid"
)

// Record kinds.
const (
	KindRound = "round_result"
	KindMatch = "match_result"
)

// Record is one finished round or match, in the shape an external historian
// consumes from the queue.
type Record struct {
	Kind          string              `json:"kind"`
	MatchID       uuid.UUID           `json:"match_id"`
	Round         int                 `json:"round"`
	WinnerSeat    int                 `json:"winner_seat"`
	WinnerProfile string              `json:"winner_profile,omitempty"`
	NetWorths     map[string]int      `json:"net_worths"`
	Bets          map[string]int      `json:"bets,omitempty"`
	Hands         map[string][]string `json:"hands,omitempty"`
	Timestamp     int64               `json:"timestamp"`
}

// Publisher ships records out of the game loop. Publish must not block.
type Publisher interface {
	Publish(rec Record)
	Close() error
}

// Nop discards every record. It is the default when no sink is configured.
type Nop struct{}

func (Nop) Publish(Record) {}

func (Nop) Close() error { return nil }
