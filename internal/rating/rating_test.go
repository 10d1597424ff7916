// internal/rating/rating_test.go
package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankScores(t *testing.T) {
	got := RankScores(map[string]int{"aaa": 900, "bbb": 100, "ccc": 0})
	assert.Equal(t, map[string]float64{"aaa": 1, "bbb": 0.5, "ccc": 0}, got)

	tied := RankScores(map[string]int{"aaa": 500, "bbb": 500, "ccc": 0})
	assert.InDelta(t, 0.75, tied["aaa"], 1e-9)
	assert.InDelta(t, 0.75, tied["bbb"], 1e-9)
	assert.InDelta(t, 0.0, tied["ccc"], 1e-9)

	assert.Equal(t, map[string]float64{"solo": 1}, RankScores(map[string]int{"solo": 5}))
}

func TestUpdateMatchHeadsUp(t *testing.T) {
	out := UpdateMatch(nil, map[string]float64{"winner": 1, "loser": 0})
	require.Len(t, out, 2)
	w, l := out["winner"], out["loser"]

	assert.Greater(t, w.Elo, DefaultElo)
	assert.Less(t, l.Elo, DefaultElo)
	assert.InDelta(t, w.Elo-DefaultElo, DefaultElo-l.Elo, 1e-6, "symmetric for equal starting ratings")
	assert.Less(t, w.RD, DefaultRD, "a result shrinks the deviation")
	assert.Greater(t, w.Sigma, 0.0)
}

func TestUpdateMatchFavouriteGainsLess(t *testing.T) {
	current := map[string]Rating{
		"strong": {Elo: 1800, RD: 100, Sigma: DefaultSigma},
		"weak":   {Elo: 1200, RD: 100, Sigma: DefaultSigma},
	}
	favWins := UpdateMatch(current, map[string]float64{"strong": 1, "weak": 0})
	upset := UpdateMatch(current, map[string]float64{"strong": 0, "weak": 1})

	gainFav := favWins["strong"].Elo - 1800
	gainUpset := upset["weak"].Elo - 1200
	assert.Greater(t, gainFav, 0.0)
	assert.Greater(t, gainUpset, gainFav)
}

func TestUpdateMatchSingleProfileIsUnchanged(t *testing.T) {
	out := UpdateMatch(nil, map[string]float64{"solo": 1})
	assert.Equal(t, New(), out["solo"])
}
