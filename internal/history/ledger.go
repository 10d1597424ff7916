// internal/history/ledger.go
package history

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/threecard/internal/rating"
)

// Standing is one profile's running totals across every recorded match.
type Standing struct {
	Profile      string `json:"profile"`
	RoundsPlayed int    `json:"rounds_played"`
	RoundsWon    int    `json:"rounds_won"`
	MatchesWon   int    `json:"matches_won"`
	// NetWorth is the latest net worth seen for the profile.
	NetWorth int `json:"net_worth"`
	// Elo moves once per finished match, ranked by final net worth.
	Elo    int           `json:"elo"`
	Rating rating.Rating `json:"-"`
}

// Ledger folds records into per-profile standings. Safe for concurrent use.
type Ledger struct {
	mu        sync.Mutex
	standings map[string]*Standing
	seen      map[uuid.UUID]int
}

func NewLedger() *Ledger {
	return &Ledger{
		standings: make(map[string]*Standing),
		seen:      make(map[uuid.UUID]int),
	}
}

// Apply is a SinkFunc. A round record older than one already applied for the
// same match is ignored.
func (l *Ledger) Apply(recs []Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range recs {
		switch rec.Kind {
		case KindRound:
			if rec.Round <= l.seen[rec.MatchID] {
				continue
			}
			l.seen[rec.MatchID] = rec.Round
			for profile := range rec.NetWorths {
				l.get(profile).RoundsPlayed++
			}
			if rec.WinnerProfile != "" {
				l.get(rec.WinnerProfile).RoundsWon++
			}
		case KindMatch:
			if rec.WinnerProfile != "" {
				l.get(rec.WinnerProfile).MatchesWon++
			}
			l.rate(rec.NetWorths)
		}
		for profile, nw := range rec.NetWorths {
			l.get(profile).NetWorth = nw
		}
	}
	return nil
}

func (l *Ledger) get(profile string) *Standing {
	s, ok := l.standings[profile]
	if !ok {
		r := rating.New()
		s = &Standing{Profile: profile, Rating: r, Elo: int(math.Round(r.Elo))}
		l.standings[profile] = s
	}
	return s
}

func (l *Ledger) rate(netWorths map[string]int) {
	current := make(map[string]rating.Rating, len(netWorths))
	for profile := range netWorths {
		current[profile] = l.get(profile).Rating
	}
	for profile, r := range rating.UpdateMatch(current, rating.RankScores(netWorths)) {
		s := l.get(profile)
		s.Rating = r
		s.Elo = int(math.Round(r.Elo))
	}
}

// Standings lists profiles by rounds won, then name.
func (l *Ledger) Standings() []Standing {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Standing, 0, len(l.standings))
	for _, s := range l.standings {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundsWon != out[j].RoundsWon {
			return out[i].RoundsWon > out[j].RoundsWon
		}
		return out[i].Profile < out[j].Profile
	})
	return out
}
