// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rankedplay

import (
	"sort"

	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
	"github.com/ppy/osu-server-spectator-sub002/pkg/ratings"
)

// finalise settles a finished room: it ranks every participant, runs the
// rating engine once, and persists updated stats plus one result row per
// player. Persistence failures here are logged and swallowed; the room is
// closing either way.
func (c *RankedPlay) finalise(scope *envelope.Scope) {
	s := c.state()
	room := c.access.Room()

	// A room that never reached round one has nothing to score.
	if s.Round == 0 || len(s.Players) == 0 {
		return
	}

	ranked := c.rankPlayers()

	results := make([]ratings.PlayerResult, 0, len(ranked))
	for _, entry := range ranked {
		stats, err := c.access.Store().GetUserStats(scope.Ctx, entry.userID, room.Settings.PoolID)
		if err != nil || stats == nil {
			stats = &models.UserStats{
				UserID:      entry.userID,
				PoolID:      room.Settings.PoolID,
				RatingMu:    ratings.DefaultMu,
				RatingSigma: ratings.DefaultSigma,
			}
		}
		results = append(results, ratings.PlayerResult{Stats: *stats, Placement: entry.placement})
	}

	updated := c.access.Ratings().Update(results)

	for i, stats := range updated {
		stats := stats
		if err := c.access.Store().UpsertUserStats(scope.Ctx, &stats); err != nil {
			scope.Log.WithError(err).Error("RANKEDPLAY: failed to persist user stats")
		}

		row := &models.MatchResultRow{
			RoomID:      room.ID,
			UserID:      stats.UserID,
			Placement:   ranked[i].placement,
			FinalHealth: s.Players[stats.UserID].Health,
			RatingMu:    stats.RatingMu,
			RatingSigma: stats.RatingSigma,
		}
		if err := c.access.Store().InsertResultRow(scope.Ctx, row); err != nil {
			scope.Log.WithError(err).Error("RANKEDPLAY: failed to persist result row")
		}
	}
}

type rankedEntry struct {
	userID    int64
	placement int
}

// rankPlayers orders participants best-first: the living by health, the
// eliminated by how long they lasted. Equal positive health is a draw and
// shares a placement.
func (c *RankedPlay) rankPlayers() []rankedEntry {
	s := c.state()

	elimIndex := make(map[int64]int, len(s.Eliminated))
	for i, userID := range s.Eliminated {
		elimIndex[userID] = i
	}

	players := make([]*playerState, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, p)
	}

	sort.Slice(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.Health != b.Health {
			return a.Health > b.Health
		}
		if a.Health == 0 && elimIndex[a.UserID] != elimIndex[b.UserID] {
			return elimIndex[a.UserID] > elimIndex[b.UserID]
		}
		return a.UserID < b.UserID
	})

	ranked := make([]rankedEntry, 0, len(players))
	for i, p := range players {
		placement := i + 1
		if i > 0 && p.Health > 0 && p.Health == players[i-1].Health {
			placement = ranked[i-1].placement
		}
		ranked = append(ranked, rankedEntry{userID: p.UserID, placement: placement})
	}

	return ranked
}
