// internal/game/round_result.go
package game

import (
	"time"

	"github.com/jason-s-yu/threecard/internal/cards"
	"github.com/jason-s-yu/threecard/internal/history"
	"github.com/jason-s-yu/threecard/internal/protocol"
	"github.com/jason-s-yu/threecard/internal/router"
	"github.com/sirupsen/logrus"
)

// RoundResultWait is how long the revealed hands stay on the table.
const RoundResultWait = 10 * time.Second

// roundResultState settles the pot, shows every hand, then deals the next
// round or ends the match.
type roundResultState struct {
	m *Machine
}

func (s *roundResultState) Enter() {
	match := s.m.Match
	winner := Winner(match)

	for seat := range match.Info.PlayerInfos {
		match.Player(seat).StateData = protocol.MustMarshal(protocol.RoundResultStateData{
			IsWinner: seat == winner,
			Hand:     cards.Codes(match.Hand(seat)),
		})
	}

	rec := s.record(history.KindRound, winner)
	pot := 0
	w := match.Player(winner)
	for seat := range match.Info.PlayerInfos {
		if seat == winner {
			continue
		}
		p := match.Player(seat)
		p.NetWorth -= p.Bet
		w.NetWorth += p.Bet
		pot += p.Bet
	}
	rec.NetWorths = s.netWorths()

	wait := match.Settings.RoundResultWait
	if wait <= 0 {
		wait = RoundResultWait
	}
	s.m.ResetTimer(wait)
	s.m.log.WithFields(logrus.Fields{
		"round":  match.Round,
		"winner": winner,
		"won":    pot,
		"hand":   cards.Classify(match.Hand(winner)),
	}).Info("round settled")
	s.m.history.Publish(rec)
	s.m.Broadcast()
}

func (s *roundResultState) Update() {
	if !s.m.TimerElapsed() {
		return
	}
	match := s.m.Match
	for _, p := range match.Info.PlayerInfos {
		if p.NetWorth <= BustNetWorth {
			s.m.Transition(protocol.StateMatchResult)
			return
		}
	}
	match.InitNewRound((match.Info.Dealer + 1) % match.SeatCount())
	s.m.Transition(protocol.StatePlayersTurn)
}

func (s *roundResultState) Leave() {}

func (s *roundResultState) HandleRequest(*Slot, string, string) (router.Result, error) {
	return router.Result{}, router.ErrNoResponse
}

// Winner is the first unfolded seat, in seat order, whose hand loses to no
// other unfolded hand. Exact ties go to the lower seat and it takes the whole
// pot. It returns NoSeat only if every seat has folded.
func Winner(match *Match) int {
	infos := match.Info.PlayerInfos
	for i := range infos {
		if infos[i].IsFolded {
			continue
		}
		beaten := false
		for j := range infos {
			if infos[j].IsFolded {
				continue
			}
			if cards.CompareHands(match.Hand(i), match.Hand(j)) < 0 {
				beaten = true
				break
			}
		}
		if !beaten {
			return i
		}
	}
	return protocol.NoSeat
}

func (s *roundResultState) record(kind string, winner int) history.Record {
	match := s.m.Match
	rec := history.Record{
		Kind:       kind,
		MatchID:    match.ID,
		Round:      match.Round,
		WinnerSeat: winner,
		Bets:       make(map[string]int, match.SeatCount()),
		Hands:      make(map[string][]string, match.SeatCount()),
		Timestamp:  s.m.now().UnixMilli(),
	}
	if winner >= 0 {
		rec.WinnerProfile = match.Slots[winner].ProfileID
	}
	for _, slot := range match.Slots {
		p := match.Player(slot.Seat)
		rec.Bets[slot.ProfileID] = p.Bet
		rec.Hands[slot.ProfileID] = cards.Codes(match.Hand(slot.Seat))
	}
	return rec
}

func (s *roundResultState) netWorths() map[string]int {
	out := make(map[string]int, s.m.Match.SeatCount())
	for _, slot := range s.m.Match.Slots {
		out[slot.ProfileID] = s.m.Match.Player(slot.Seat).NetWorth
	}
	return out
}
