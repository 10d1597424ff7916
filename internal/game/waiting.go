// internal/game/waiting.go
package game

import (
	"github.com/jason-s-yu/threecard/internal/router"
)

// waitingState holds the table until every slot has shaken hands. The
// handshake path in Machine is its only exit.
type waitingState struct {
	m *Machine
}

func (s *waitingState) Enter() {
	for seat := range s.m.Match.Info.PlayerInfos {
		s.m.Match.Player(seat).NetWorth = s.m.Match.Settings.InitNetWorth
	}
}

func (s *waitingState) Update() {}

func (s *waitingState) Leave() {}

func (s *waitingState) HandleRequest(*Slot, string, string) (router.Result, error) {
	return router.Result{}, router.ErrNoResponse
}
