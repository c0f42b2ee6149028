// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package ratings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

func freshStats(userID int64) models.UserStats {
	return models.UserStats{
		UserID:      userID,
		PoolID:      1,
		RatingMu:    DefaultMu,
		RatingSigma: DefaultSigma,
	}
}

func byUser(updated []models.UserStats) map[int64]models.UserStats {
	out := make(map[int64]models.UserStats, len(updated))
	for _, stats := range updated {
		out[stats.UserID] = stats
	}
	return out
}

func TestUpdate_WinnerGainsLoserLoses(t *testing.T) {
	t.Parallel()

	engine := NewTrueSkillEngine()

	updated := byUser(engine.Update([]PlayerResult{
		{Stats: freshStats(1), Placement: 1},
		{Stats: freshStats(2), Placement: 2},
	}))

	assert.Greater(t, updated[1].RatingMu, DefaultMu)
	assert.Less(t, updated[2].RatingMu, DefaultMu)

	// Evidence always shrinks uncertainty.
	assert.Less(t, updated[1].RatingSigma, DefaultSigma)
	assert.Less(t, updated[2].RatingSigma, DefaultSigma)

	assert.Equal(t, 1, updated[1].ContestCount)
	assert.Equal(t, 1, updated[2].ContestCount)
}

func TestUpdate_EqualPriorsMoveSymmetrically(t *testing.T) {
	t.Parallel()

	engine := NewTrueSkillEngine()

	updated := byUser(engine.Update([]PlayerResult{
		{Stats: freshStats(1), Placement: 1},
		{Stats: freshStats(2), Placement: 2},
	}))

	assert.InDelta(t, DefaultMu-updated[2].RatingMu, updated[1].RatingMu-DefaultMu, 1e-9)
}

func TestUpdate_DrawBarelyMovesEqualPriors(t *testing.T) {
	t.Parallel()

	engine := NewTrueSkillEngine()

	updated := byUser(engine.Update([]PlayerResult{
		{Stats: freshStats(1), Placement: 1},
		{Stats: freshStats(2), Placement: 1},
	}))

	assert.InDelta(t, DefaultMu, updated[1].RatingMu, 1e-6)
	assert.InDelta(t, DefaultMu, updated[2].RatingMu, 1e-6)
}

func TestUpdate_UpsetMovesMoreThanExpectedWin(t *testing.T) {
	t.Parallel()

	engine := NewTrueSkillEngine()

	strong := freshStats(1)
	strong.RatingMu = 35
	weak := freshStats(2)
	weak.RatingMu = 15

	expected := byUser(engine.Update([]PlayerResult{
		{Stats: strong, Placement: 1},
		{Stats: weak, Placement: 2},
	}))
	upset := byUser(engine.Update([]PlayerResult{
		{Stats: strong, Placement: 2},
		{Stats: weak, Placement: 1},
	}))

	expectedGain := expected[1].RatingMu - strong.RatingMu
	upsetGain := upset[2].RatingMu - weak.RatingMu

	require.Greater(t, upsetGain, 0.0)
	assert.Greater(t, upsetGain, expectedGain)
}

func TestUpdate_ThreePlayersOrderedByPlacement(t *testing.T) {
	t.Parallel()

	engine := NewTrueSkillEngine()

	updated := byUser(engine.Update([]PlayerResult{
		{Stats: freshStats(1), Placement: 2},
		{Stats: freshStats(2), Placement: 1},
		{Stats: freshStats(3), Placement: 3},
	}))

	assert.Greater(t, updated[2].RatingMu, updated[1].RatingMu)
	assert.Greater(t, updated[1].RatingMu, updated[3].RatingMu)
}

func TestUpdate_SigmaNeverBelowFloor(t *testing.T) {
	t.Parallel()

	engine := NewTrueSkillEngine()

	confident := freshStats(1)
	confident.RatingSigma = 0.02

	updated := byUser(engine.Update([]PlayerResult{
		{Stats: confident, Placement: 1},
		{Stats: freshStats(2), Placement: 2},
	}))

	assert.GreaterOrEqual(t, updated[1].RatingSigma, 0.01)
}
