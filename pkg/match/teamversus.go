// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package match

import (
	"github.com/elliotchance/pie/v2"

	"github.com/ppy/osu-server-spectator-sub002/pkg/constants"
	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

const teamCount = 2

// TeamVersusState is the broadcastable room state for team-versus rooms.
type TeamVersusState struct {
	TeamSizes map[int]int `json:"team_sizes"`
}

// teamVersus assigns every roster member to one of a fixed set of teams,
// keeping team sizes as even as join order allows.
type teamVersus struct {
	access RoomAccess
}

// NewTeamVersus returns the controller for team-versus rooms.
func NewTeamVersus(access RoomAccess) Controller {
	return &teamVersus{access: access}
}

func (c *teamVersus) Initialise(scope *envelope.Scope) error {
	room := c.access.Room()
	room.MatchState = nil

	// Re-seat everyone who has no valid team, preserving existing valid
	// assignments so a mode round-trip does not shuffle teams.
	for _, user := range room.Users {
		if user.TeamID < 1 || user.TeamID > teamCount {
			user.TeamID = c.bestTeam()
			user.MatchDetails = nil
			c.access.Broadcast(scope, models.NewEvent(models.EventUserDetailsChanged, user))
		}
	}

	room.MatchState = c.currentState()
	c.access.Broadcast(scope, models.NewEvent(models.EventMatchRoomStateChanged, room.MatchState))

	return nil
}

func (c *teamVersus) UserCanJoin(userID int64) error {
	return nil
}

func (c *teamVersus) HandleUserJoined(scope *envelope.Scope, user *models.RoomUser) error {
	user.TeamID = c.bestTeam()
	c.access.Broadcast(scope, models.NewEvent(models.EventUserDetailsChanged, user))

	c.refreshState(scope)
	return nil
}

func (c *teamVersus) HandleUserLeft(scope *envelope.Scope, user *models.RoomUser) error {
	user.TeamID = 0
	c.refreshState(scope)
	return nil
}

func (c *teamVersus) HandleSettingsChanged(scope *envelope.Scope) error {
	return nil
}

func (c *teamVersus) HandleGameplayCompleted(scope *envelope.Scope, results []models.GameplayResult) error {
	return nil
}

func (c *teamVersus) HandleUserRequest(scope *envelope.Scope, user *models.RoomUser, request models.MatchUserRequest) error {
	return models.Reject(constants.RejectReasonUnknownRequest)
}

func (c *teamVersus) ItemAdded(scope *envelope.Scope, item *models.PlaylistItem) error {
	return nil
}

func (c *teamVersus) ItemEdited(scope *envelope.Scope, item *models.PlaylistItem) error {
	return nil
}

func (c *teamVersus) ItemRemoved(scope *envelope.Scope, item *models.PlaylistItem) error {
	return nil
}

func (c *teamVersus) MatchDetails() interface{} {
	return c.currentState()
}

// bestTeam picks a team with zero members when one exists, otherwise the
// least-populated team. Lower team IDs win ties so assignment is stable.
func (c *teamVersus) bestTeam() int {
	sizes := c.teamSizes()

	best := 1
	for team := 1; team <= teamCount; team++ {
		if sizes[team] == 0 {
			return team
		}
		if sizes[team] < sizes[best] {
			best = team
		}
	}

	return best
}

func (c *teamVersus) teamSizes() map[int]int {
	sizes := make(map[int]int, teamCount)
	for team := 1; team <= teamCount; team++ {
		sizes[team] = len(pie.Filter(c.access.Room().Users, func(u *models.RoomUser) bool {
			return u.TeamID == team
		}))
	}
	return sizes
}

func (c *teamVersus) currentState() *TeamVersusState {
	return &TeamVersusState{TeamSizes: c.teamSizes()}
}

func (c *teamVersus) refreshState(scope *envelope.Scope) {
	room := c.access.Room()
	room.MatchState = c.currentState()
	c.access.Broadcast(scope, models.NewEvent(models.EventMatchRoomStateChanged, room.MatchState))
}
