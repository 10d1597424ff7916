// internal/cards/hand.go
package cards

import "fmt"

// Pattern classifies a 3-card hand. Higher values beat lower ones.
type Pattern int

const (
	HighCard Pattern = iota
	Pair
	Straight
	Flush
	StraightFlush
	Trips
)

var patternNames = [...]string{"high_card", "pair", "straight", "flush", "straight_flush", "trips"}

func (p Pattern) String() string {
	if p < 0 || int(p) >= len(patternNames) {
		return fmt.Sprintf("pattern(%d)", int(p))
	}
	return patternNames[p]
}

// HandSize is the number of cards dealt to every seat.
const HandSize = 3

// Classify returns the pattern of a 3-card hand. The hand is not modified.
func Classify(hand []Card) Pattern {
	s := sorted(hand)
	return classifySorted(s)
}

func classifySorted(s [HandSize]Card) Pattern {
	r0, r1, r2 := s[0].RankIndex(), s[1].RankIndex(), s[2].RankIndex()
	sameSuit := s[0].Suit == s[1].Suit && s[1].Suit == s[2].Suit
	run := r1-r0 == 1 && r2-r1 == 1

	switch {
	case r0 == r1 && r1 == r2:
		return Trips
	case run && sameSuit:
		return StraightFlush
	case sameSuit:
		return Flush
	case run:
		return Straight
	case r0 == r1 || r1 == r2:
		return Pair
	default:
		return HighCard
	}
}

// CompareHands ranks two 3-card hands. It returns a negative number when a loses
// to b, zero on an exact tie and a positive number when a beats b.
// Both hands must hold exactly HandSize cards.
func CompareHands(a, b []Card) int {
	ka, kb := handKey(a), handKey(b)
	for i := range ka {
		if d := ka[i] - kb[i]; d != 0 {
			return d
		}
	}
	return 0
}

// handKey flattens a hand into a lexicographic key: the pattern first, then the
// tie-break values of that pattern, most significant first.
func handKey(hand []Card) [7]int {
	s := sorted(hand)
	p := classifySorted(s)
	lo, mid, hi := s[0], s[1], s[2]

	key := [7]int{int(p)}
	switch p {
	case Trips:
		key[1] = lo.RankIndex()
	case StraightFlush, Straight:
		key[1] = lo.RankIndex()
		key[2] = lo.SuitIndex()
		key[3] = mid.SuitIndex()
		key[4] = hi.SuitIndex()
	case Flush:
		key[1] = hi.RankIndex()
		key[2] = mid.RankIndex()
		key[3] = lo.RankIndex()
		key[4] = lo.SuitIndex()
	case Pair:
		// sorted order puts the pair at [0,1] or [1,2]; top is its higher card
		top, kicker := mid, hi
		if mid.Rank == hi.Rank {
			top, kicker = hi, lo
		}
		key[1] = top.RankIndex()
		key[2] = kicker.RankIndex()
		key[3] = top.SuitIndex()
	default:
		key[1] = hi.RankIndex()
		key[2] = mid.RankIndex()
		key[3] = lo.RankIndex()
		key[4] = hi.SuitIndex()
		key[5] = mid.SuitIndex()
		key[6] = lo.SuitIndex()
	}
	return key
}

func sorted(hand []Card) [HandSize]Card {
	if len(hand) != HandSize {
		panic(fmt.Sprintf("cards: hand has %d cards, want %d", len(hand), HandSize))
	}
	var s [HandSize]Card
	copy(s[:], hand)
	SortCards(s[:])
	return s
}
