// internal/game/players_turn.go
package game

import (
	"github.com/jason-s-yu/threecard/internal/protocol"
	"github.com/jason-s-yu/threecard/internal/router"
	"github.com/sirupsen/logrus"
)

// playersTurnState offers the active seat its legal actions and waits for one,
// or for the turn timer.
type playersTurnState struct {
	m *Machine
}

func (s *playersTurnState) Enter() {
	s.m.Match.refreshActions()
	s.m.ResetTimer(s.m.Match.Settings.TurnTime)
	s.m.Broadcast()
}

func (s *playersTurnState) Update() {
	if !s.m.TimerElapsed() {
		return
	}
	seat := s.m.Match.Info.ActivePlayer
	s.m.log.WithFields(logrus.Fields{"seat": seat, "round": s.m.Match.Round}).Info("turn timed out, folding")
	s.apply(seat, protocol.ActionFold, 0)
}

func (s *playersTurnState) Leave() {}

func (s *playersTurnState) HandleRequest(slot *Slot, typeName, data string) (router.Result, error) {
	if typeName != protocol.TypeDoGeneralAction {
		return router.Result{}, router.ErrNoResponse
	}
	var req protocol.DoGeneralActionRequest
	if err := protocol.Unmarshal(data, &req); err != nil {
		return router.Result{}, err
	}
	rejected := router.Result{Data: protocol.MustMarshal(protocol.DoGeneralActionResponse{Success: false})}
	if slot == nil {
		s.m.log.WithField("action", req.Action).Warn("action from a connection without a seat")
		return rejected, nil
	}

	log := s.m.log.WithFields(logrus.Fields{"seat": slot.Seat, "action": req.Action})
	if !s.m.Match.allowed(slot.Seat, req.Action) {
		log.Warn("action not allowed")
		return rejected, nil
	}

	increment := 0
	if req.Action == protocol.ActionRaiseBet {
		var raise protocol.RaiseBetData
		if err := protocol.Unmarshal(req.Data, &raise); err != nil {
			return router.Result{}, err
		}
		if !s.m.Match.ValidRaise(raise.Bet) {
			log.WithFields(logrus.Fields{"bet": raise.Bet, "maxRaise": s.m.Match.MaxRaise()}).Warn("invalid raise")
			return rejected, nil
		}
		increment = raise.Bet
	}

	seat := slot.Seat
	return router.Result{
		Data:   protocol.MustMarshal(protocol.DoGeneralActionResponse{Success: true}),
		Effect: func() { s.apply(seat, req.Action, increment) },
	}, nil
}

// apply performs a validated action for seat and moves the match on.
func (s *playersTurnState) apply(seat int, action protocol.GeneralAction, increment int) {
	match := s.m.Match
	info := &match.Info
	p := match.Player(seat)

	switch action {
	case protocol.ActionFollowBet:
		p.Bet = match.HighestBet()
	case protocol.ActionRaiseBet:
		p.Bet = match.HighestBet() + increment
		info.Aggressor = seat
	case protocol.ActionFold:
		p.IsFolded = true
		if match.Unfolded() <= 1 {
			s.m.Transition(protocol.StateRoundResult)
			return
		}
		// a folded aggressor could never call the showdown
		if info.Aggressor == seat {
			info.Aggressor = match.nextUnfolded(seat)
		}
	case protocol.ActionShowdown:
		s.m.Transition(protocol.StateRoundResult)
		return
	}

	s.m.log.WithFields(logrus.Fields{"seat": seat, "action": action, "bet": p.Bet}).Debug("action applied")
	// folded seats are skipped; with two seats this is plain seat+1
	info.ActivePlayer = match.nextUnfolded(seat)
	s.m.Transition(protocol.StatePlayersTurn)
}
