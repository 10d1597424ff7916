// internal/game/match_result.go
package game

import (
	"github.com/jason-s-yu/threecard/internal/history"
	"github.com/jason-s-yu/threecard/internal/protocol"
	"github.com/jason-s-yu/threecard/internal/router"
	"github.com/sirupsen/logrus"
)

// matchResultState is terminal: it publishes the final standings and stays.
type matchResultState struct {
	m *Machine
}

func (s *matchResultState) Enter() {
	match := s.m.Match
	leader, best := protocol.NoSeat, 0
	worths := make(map[string]int, match.SeatCount())
	for _, slot := range match.Slots {
		nw := match.Player(slot.Seat).NetWorth
		worths[slot.ProfileID] = nw
		if leader == protocol.NoSeat || nw > best {
			leader, best = slot.Seat, nw
		}
	}
	rec := history.Record{
		Kind:       history.KindMatch,
		MatchID:    match.ID,
		Round:      match.Round,
		WinnerSeat: leader,
		NetWorths:  worths,
		Timestamp:  s.m.now().UnixMilli(),
	}
	if leader >= 0 {
		rec.WinnerProfile = match.Slots[leader].ProfileID
	}
	s.m.log.WithFields(logrus.Fields{"rounds": match.Round, "leader": rec.WinnerProfile, "netWorths": worths}).Info("match over")
	s.m.history.Publish(rec)
	s.m.Broadcast()
}

// Update has nothing to do; the process is stopped from outside.
func (s *matchResultState) Update() {}

func (s *matchResultState) Leave() {}

func (s *matchResultState) HandleRequest(*Slot, string, string) (router.Result, error) {
	return router.Result{}, router.ErrNoResponse
}
