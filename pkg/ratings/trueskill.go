// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package ratings

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

// Default prior for a user with no rating row yet.
const (
	DefaultMu    = 25.0
	DefaultSigma = DefaultMu / 3.0
)

const (
	// beta is the assumed performance variance of a single round.
	beta = DefaultSigma / 2.0

	// tau keeps ratings from collapsing: a little variance is added back on
	// every contest.
	tau = DefaultSigma / 100.0

	// drawMargin tolerates score noise when two placements tie.
	drawMargin = 0.1

	minSigma = 0.01
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// trueSkillEngine updates Gaussian skill beliefs from a single room's
// placements using pairwise TrueSkill factors: each player is compared with
// every other player and the mean of the pairwise corrections is applied.
type trueSkillEngine struct{}

func NewTrueSkillEngine() Engine {
	return &trueSkillEngine{}
}

func (e *trueSkillEngine) Update(results []PlayerResult) []models.UserStats {
	ordered := append([]PlayerResult(nil), results...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Placement < ordered[j].Placement
	})

	updated := make([]models.UserStats, len(ordered))
	for i, player := range ordered {
		mu := player.Stats.RatingMu
		variance := player.Stats.RatingSigma*player.Stats.RatingSigma + tau*tau

		var deltaMu, deltaVar float64
		pairs := 0
		for j, opponent := range ordered {
			if i == j {
				continue
			}

			dMu, dVar := pairwiseUpdate(
				mu, variance,
				opponent.Stats.RatingMu, opponent.Stats.RatingSigma*opponent.Stats.RatingSigma,
				outcomeOf(player.Placement, opponent.Placement),
			)
			deltaMu += dMu
			deltaVar += dVar
			pairs++
		}
		if pairs > 0 {
			deltaMu /= float64(pairs)
			deltaVar /= float64(pairs)
		}

		sigma := math.Sqrt(math.Max(variance*(1-deltaVar), minSigma*minSigma))
		stats := player.Stats
		stats.RatingMu = mu + deltaMu
		stats.RatingSigma = sigma
		stats.ContestCount++
		updated[i] = stats
	}

	return updated
}

type outcome int

const (
	outcomeWin outcome = iota
	outcomeDraw
	outcomeLoss
)

func outcomeOf(placement, opponentPlacement int) outcome {
	switch {
	case placement < opponentPlacement:
		return outcomeWin
	case placement > opponentPlacement:
		return outcomeLoss
	default:
		return outcomeDraw
	}
}

// pairwiseUpdate returns the mean shift and the multiplicative variance
// correction from one win/draw/loss comparison.
func pairwiseUpdate(mu, variance, opponentMu, opponentVariance float64, result outcome) (float64, float64) {
	c := math.Sqrt(variance + opponentVariance + 2*beta*beta)

	diff := (mu - opponentMu) / c
	if result == outcomeLoss {
		diff = -diff
	}

	var v, w float64
	if result == outcomeDraw {
		v, w = vDraw(diff, drawMargin/c)
	} else {
		v, w = vWin(diff, drawMargin/c)
	}

	deltaMu := variance / c * v
	if result == outcomeLoss {
		deltaMu = -deltaMu
	}

	return deltaMu, variance / (c * c) * w
}

// vWin and wWin are the additive/multiplicative corrections for a decisive
// comparison, from the TrueSkill truncated-Gaussian update.
func vWin(t, epsilon float64) (float64, float64) {
	x := t - epsilon
	denom := stdNormal.CDF(x)
	if denom < 1e-10 {
		v := -x
		return v, v * (v + x)
	}

	v := stdNormal.Prob(x) / denom
	return v, v * (v + x)
}

// vDraw handles the double-truncated case where the comparison is a draw.
func vDraw(t, epsilon float64) (float64, float64) {
	abs := math.Abs(t)
	denom := stdNormal.CDF(epsilon-abs) - stdNormal.CDF(-epsilon-abs)
	if denom < 1e-10 {
		if t < 0 {
			return abs + epsilon, 1
		}
		return -(abs + epsilon), 1
	}

	numer := stdNormal.Prob(-epsilon-abs) - stdNormal.Prob(epsilon-abs)
	v := numer / denom
	if t < 0 {
		v = -v
	}

	a, b := epsilon-abs, -epsilon-abs
	w := (v * v) + (a*stdNormal.Prob(a)-b*stdNormal.Prob(b))/denom

	return v, w
}
