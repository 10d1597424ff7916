// internal/cards/card.go
package cards

import (
	"fmt"
	"slices"
	"strings"
)

// RankOrder and SuitOrder define card priority, lowest first.
// Z is the joker rank; B and R are the black and red joker suits.
const (
	RankOrder = "23456789TJQKAZ"
	SuitOrder = "DCHSBR"
)

const jokerRank = 'Z'

// Card is an immutable (rank, suit) pair. Its wire form is a 2-character code, e.g. "TD".
type Card struct {
	Rank byte
	Suit byte
}

// NewCard validates the rank/suit pairing. Jokers only take joker suits and
// regular ranks never do.
func NewCard(rank, suit byte) (Card, error) {
	if strings.IndexByte(RankOrder, rank) < 0 {
		return Card{}, fmt.Errorf("invalid rank %q", rank)
	}
	if strings.IndexByte(SuitOrder, suit) < 0 {
		return Card{}, fmt.Errorf("invalid suit %q", suit)
	}
	if (rank == jokerRank) != isJokerSuit(suit) {
		return Card{}, fmt.Errorf("invalid rank/suit pairing %c%c", rank, suit)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// ParseCard reads a 2-character card code.
func ParseCard(code string) (Card, error) {
	if len(code) != 2 {
		return Card{}, fmt.Errorf("invalid card code %q", code)
	}
	return NewCard(code[0], code[1])
}

// MustParse is ParseCard for literals; it panics on a bad code.
func MustParse(code string) Card {
	c, err := ParseCard(code)
	if err != nil {
		panic(err)
	}
	return c
}

// Codes returns the wire codes of a hand, in order.
func Codes(hand []Card) []string {
	out := make([]string, len(hand))
	for i, c := range hand {
		out[i] = c.String()
	}
	return out
}

func (c Card) String() string {
	return string([]byte{c.Rank, c.Suit})
}

// RankIndex is the position of the card's rank in RankOrder.
func (c Card) RankIndex() int {
	return strings.IndexByte(RankOrder, c.Rank)
}

// SuitIndex is the position of the card's suit in SuitOrder.
func (c Card) SuitIndex() int {
	return strings.IndexByte(SuitOrder, c.Suit)
}

func (c Card) IsJoker() bool {
	return c.Rank == jokerRank
}

func isJokerSuit(suit byte) bool {
	return suit == 'B' || suit == 'R'
}

// Compare orders cards by rank index, then suit index.
// It returns a negative number when a < b, zero when equal and positive when a > b.
func Compare(a, b Card) int {
	if d := a.RankIndex() - b.RankIndex(); d != 0 {
		return d
	}
	return a.SuitIndex() - b.SuitIndex()
}

// SortCards sorts a hand in place, lowest card first.
func SortCards(hand []Card) {
	slices.SortFunc(hand, Compare)
}
