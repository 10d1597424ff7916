// internal/cards/pile.go
package cards

import (
	"errors"
	"math/rand"
	"time"
)

// ErrEmptyPile is returned by Draw when no cards remain.
var ErrEmptyPile = errors.New("card pile is empty")

// Pile is an ordered, mutable sequence of cards. Index 0 is the top.
type Pile struct {
	cards []Card
	rng   *rand.Rand
}

// NewPile returns an empty pile shuffled by a time-seeded source.
func NewPile() *Pile {
	return NewPileWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewPileWithSource lets callers (tests mostly) fix the shuffle sequence.
func NewPileWithSource(src rand.Source) *Pile {
	return &Pile{rng: rand.New(src)}
}

// Init clears the pile and fills it with deckCount standard 52-card decks,
// plus one red and one black joker per deck when withJokers is set.
func (p *Pile) Init(deckCount int, withJokers bool) {
	p.cards = p.cards[:0]
	for i := 0; i < deckCount; i++ {
		for s := 0; s < len(SuitOrder); s++ {
			for r := 0; r < len(RankOrder); r++ {
				c, err := NewCard(RankOrder[r], SuitOrder[s])
				if err != nil {
					continue
				}
				if c.IsJoker() && !withJokers {
					continue
				}
				p.cards = append(p.cards, c)
			}
		}
	}
}

// Shuffle applies a Fisher-Yates permutation to the whole pile.
func (p *Pile) Shuffle() {
	for i := len(p.cards) - 1; i > 0; i-- {
		j := p.rng.Intn(i + 1)
		p.cards[i], p.cards[j] = p.cards[j], p.cards[i]
	}
}

// Len reports the number of cards left.
func (p *Pile) Len() int {
	return len(p.cards)
}

// Cards returns a copy of the remaining cards, top first.
func (p *Pile) Cards() []Card {
	out := make([]Card, len(p.cards))
	copy(out, p.cards)
	return out
}

// Draw removes and returns the top card.
func (p *Pile) Draw() (Card, error) {
	if len(p.cards) == 0 {
		return Card{}, ErrEmptyPile
	}
	c := p.cards[0]
	p.cards = p.cards[1:]
	return c, nil
}

// MustDraw is Draw for callers whose configuration guarantees enough cards.
// An empty pile here is a broken invariant, so it panics.
func (p *Pile) MustDraw() Card {
	c, err := p.Draw()
	if err != nil {
		panic(err)
	}
	return c
}
