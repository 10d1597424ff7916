// internal/rating/rating.go
package rating

import (
	"math"
	"sort"
)

const (
	// GlickoScale converts between the 1500-based scale and Glicko-2's mu.
	GlickoScale = 173.7178
	// DefaultElo is the starting rating.
	DefaultElo = 1500.0
	// DefaultRD is the starting rating deviation.
	DefaultRD = 350.0
	// DefaultSigma is the starting volatility.
	DefaultSigma = 0.06
	// Tau constrains volatility changes.
	Tau = 0.5
	// Epsilon is the convergence tolerance of the volatility iteration.
	Epsilon = 0.000001
)

// Rating is a profile's rating on the familiar 1500 scale.
type Rating struct {
	Elo   float64 `json:"elo"`
	RD    float64 `json:"rd"`
	Sigma float64 `json:"sigma"`
}

// New is an unrated profile.
func New() Rating {
	return Rating{Elo: DefaultElo, RD: DefaultRD, Sigma: DefaultSigma}
}

// glicko is a rating in Glicko-2 space.
type glicko struct {
	mu, phi, sigma float64
}

func (r Rating) toGlicko() glicko {
	return glicko{mu: (r.Elo - DefaultElo) / GlickoScale, phi: r.RD / GlickoScale, sigma: r.Sigma}
}

func (g glicko) toRating() Rating {
	return Rating{Elo: g.mu*GlickoScale + DefaultElo, RD: g.phi * GlickoScale, Sigma: g.sigma}
}

// RankScores turns final net worths into scores in [0..1]: the richest seat
// scores 1, the poorest 0, and tied seats share the average of their ranks.
func RankScores(netWorths map[string]int) map[string]float64 {
	type entry struct {
		profile  string
		netWorth int
	}
	arr := make([]entry, 0, len(netWorths))
	for p, nw := range netWorths {
		arr = append(arr, entry{p, nw})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].netWorth != arr[j].netWorth {
			return arr[i].netWorth > arr[j].netWorth
		}
		return arr[i].profile < arr[j].profile
	})

	out := make(map[string]float64, len(arr))
	if len(arr) == 1 {
		out[arr[0].profile] = 1
		return out
	}
	for i := 0; i < len(arr); {
		j := i + 1
		for j < len(arr) && arr[j].netWorth == arr[i].netWorth {
			j++
		}
		avgRank := float64(i+j-1) / 2
		frac := 1.0 - avgRank/float64(len(arr)-1)
		for k := i; k < j; k++ {
			out[arr[k].profile] = frac
		}
		i = j
	}
	return out
}

// UpdateMatch applies one Glicko-2 step per profile in scores. Each profile is
// rated against the average of the others, the same approximation used for
// multi-seat games. Profiles missing from current start at New().
func UpdateMatch(current map[string]Rating, scores map[string]float64) map[string]Rating {
	out := make(map[string]Rating, len(scores))
	if len(scores) < 2 {
		for p := range scores {
			out[p] = lookup(current, p)
		}
		return out
	}

	var total float64
	for p := range scores {
		total += lookup(current, p).Elo
	}
	for p, score := range scores {
		r := lookup(current, p)
		oppElo := (total - r.Elo) / float64(len(scores)-1)
		opp := Rating{Elo: oppElo, RD: DefaultRD, Sigma: DefaultSigma}.toGlicko()
		out[p] = step(r.toGlicko(), opp, score).toRating()
	}
	return out
}

func lookup(m map[string]Rating, p string) Rating {
	if r, ok := m[p]; ok {
		return r
	}
	return New()
}

// step is a single Glicko-2 update of r against opp with the given score.
func step(r, opp glicko, score float64) glicko {
	gVal := g(opp.phi)
	eVal := expected(r.mu, opp.mu, opp.phi)
	v := 1.0 / (gVal * gVal * eVal * (1 - eVal))
	delta := v * gVal * (score - eVal)

	a := math.Log(r.sigma * r.sigma)
	fx := func(x float64) float64 { return f(x, r.phi, v, delta, a) }

	A := a
	var B float64
	if delta*delta > r.phi*r.phi+v {
		B = math.Log(delta*delta - r.phi*r.phi - v)
	} else {
		k := 1.0
		for fx(a-k*Tau) < 0 {
			k++
		}
		B = a - k*Tau
	}

	fA, fB := fx(A), fx(B)
	for i := 0; i < 100 && math.Abs(B-A) > Epsilon; i++ {
		C := A + (A-B)*fA/(fB-fA)
		fC := fx(C)
		if fC*fB <= 0 {
			A, fA = B, fB
		} else {
			fA /= 2
		}
		B, fB = C, fC
	}

	sigma := math.Exp(A / 2)
	phiStar := math.Sqrt(r.phi*r.phi + sigma*sigma)
	phi := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	return glicko{
		mu:    r.mu + phi*phi*gVal*(score-eVal),
		phi:   phi,
		sigma: sigma,
	}
}

// g is 1/sqrt(1+3phi^2/pi^2).
func g(phi float64) float64 {
	return 1.0 / math.Sqrt(1.0+3.0*phi*phi/(math.Pi*math.Pi))
}

// expected is the win expectancy of mu against mu2.
func expected(mu, mu2, phi2 float64) float64 {
	return 1.0 / (1.0 + math.Exp(-g(phi2)*(mu-mu2)))
}

func f(x, phi, v, delta, a float64) float64 {
	ex := math.Exp(x)
	num := ex * (delta*delta - phi*phi - v - ex)
	den := 2.0 * (phi*phi + v + ex) * (phi*phi + v + ex)
	return num/den - (x-a)/(Tau*Tau)
}
