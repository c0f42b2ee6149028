// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
	"github.com/ppy/osu-server-spectator-sub002/pkg/ratings"
)

// identityEngine returns every rating unchanged apart from the contest count,
// keeping rating math out of room lifecycle tests.
type identityEngine struct{}

func NewRatings() ratings.Engine {
	return identityEngine{}
}

func (identityEngine) Update(results []ratings.PlayerResult) []models.UserStats {
	updated := make([]models.UserStats, len(results))
	for i, result := range results {
		stats := result.Stats
		stats.ContestCount++
		updated[i] = stats
	}
	return updated
}
