package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCard(t *testing.T) {
	c, err := ParseCard("TD")
	require.NoError(t, err)
	assert.Equal(t, byte('T'), c.Rank)
	assert.Equal(t, byte('D'), c.Suit)
	assert.Equal(t, "TD", c.String())

	joker, err := ParseCard("ZR")
	require.NoError(t, err)
	assert.True(t, joker.IsJoker())

	for _, bad := range []string{"", "T", "TDX", "1D", "TX", "ZD", "AB"} {
		_, err := ParseCard(bad)
		assert.Error(t, err, "code %q should be rejected", bad)
	}
}

func TestCompareOrdersRankThenSuit(t *testing.T) {
	assert.Negative(t, Compare(MustParse("2S"), MustParse("3D")))
	assert.Positive(t, Compare(MustParse("AD"), MustParse("KS")))
	assert.Negative(t, Compare(MustParse("9D"), MustParse("9C")))
	assert.Positive(t, Compare(MustParse("9S"), MustParse("9H")))
	assert.Zero(t, Compare(MustParse("QH"), MustParse("QH")))
	assert.Positive(t, Compare(MustParse("ZB"), MustParse("AS")))
}

func TestSortCards(t *testing.T) {
	hand := []Card{MustParse("KS"), MustParse("2H"), MustParse("KD")}
	SortCards(hand)
	assert.Equal(t, []string{"2H", "KD", "KS"}, Codes(hand))
}

