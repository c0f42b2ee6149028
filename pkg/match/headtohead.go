// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package match

import (
	"github.com/ppy/osu-server-spectator-sub002/pkg/constants"
	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

// headToHead is the plainest controller: no teams, no per-user match state.
type headToHead struct {
	access RoomAccess
}

// NewHeadToHead returns the controller for free-for-all rooms.
func NewHeadToHead(access RoomAccess) Controller {
	return &headToHead{access: access}
}

// Initialise strips any per-user match state left behind by a previous mode.
func (c *headToHead) Initialise(scope *envelope.Scope) error {
	room := c.access.Room()
	room.MatchState = nil

	for _, user := range room.Users {
		if user.MatchDetails != nil || user.TeamID != 0 {
			user.MatchDetails = nil
			user.TeamID = 0
			c.access.Broadcast(scope, models.NewEvent(models.EventUserDetailsChanged, user))
		}
	}

	return nil
}

func (c *headToHead) UserCanJoin(userID int64) error {
	return nil
}

func (c *headToHead) HandleUserJoined(scope *envelope.Scope, user *models.RoomUser) error {
	return nil
}

func (c *headToHead) HandleUserLeft(scope *envelope.Scope, user *models.RoomUser) error {
	return nil
}

func (c *headToHead) HandleSettingsChanged(scope *envelope.Scope) error {
	return nil
}

func (c *headToHead) HandleGameplayCompleted(scope *envelope.Scope, results []models.GameplayResult) error {
	return nil
}

func (c *headToHead) HandleUserRequest(scope *envelope.Scope, user *models.RoomUser, request models.MatchUserRequest) error {
	return models.Reject(constants.RejectReasonUnknownRequest)
}

func (c *headToHead) ItemAdded(scope *envelope.Scope, item *models.PlaylistItem) error {
	return nil
}

func (c *headToHead) ItemEdited(scope *envelope.Scope, item *models.PlaylistItem) error {
	return nil
}

func (c *headToHead) ItemRemoved(scope *envelope.Scope, item *models.PlaylistItem) error {
	return nil
}

func (c *headToHead) MatchDetails() interface{} {
	return nil
}
