// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rooms

import (
	"time"

	"github.com/ppy/osu-server-spectator-sub002/pkg/config"
	"github.com/ppy/osu-server-spectator-sub002/pkg/constants"
	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
	"github.com/ppy/osu-server-spectator-sub002/pkg/persistence"
	"github.com/ppy/osu-server-spectator-sub002/pkg/ratings"
)

// roomContext implements match.RoomAccess for a locked serverRoom. Instances
// are cheap throwaways created per operation; all methods assume the room's
// usage lock is held by the caller.
type roomContext struct {
	hub *Hub
	sr  *serverRoom
}

func (rc *roomContext) Room() *models.Room       { return rc.sr.room }
func (rc *roomContext) Config() *config.Config   { return rc.hub.cfg }
func (rc *roomContext) Store() persistence.Store { return rc.hub.store }
func (rc *roomContext) Ratings() ratings.Engine  { return rc.hub.ratings }

func (rc *roomContext) Broadcast(scope *envelope.Scope, event models.Event) {
	rc.hub.notifier.ToRoom(scope, rc.sr.room.ID, event)
}

func (rc *roomContext) NotifyUser(scope *envelope.Scope, userID int64, event models.Event) {
	rc.hub.notifier.ToUser(scope, userID, event)
}

// UpdateQueueOrder re-runs the scheduler over the active playlist, persists
// the positions that moved and refreshes the current item.
func (rc *roomContext) UpdateQueueOrder(scope *envelope.Scope) error {
	room := rc.sr.room

	changed := orderActiveItems(room.Settings.QueueMode, room.ActiveItems())
	for _, item := range changed {
		if err := rc.hub.store.UpdatePlaylistItem(scope.Ctx, item); err != nil {
			return err
		}
		rc.Broadcast(scope, models.NewEvent(models.EventPlaylistItemChanged, item))
	}

	return rc.refreshCurrentItem(scope)
}

// refreshCurrentItem recomputes the room's current item: the lowest-order
// active item, or the most recently played item when nothing is left.
func (rc *roomContext) refreshCurrentItem(scope *envelope.Scope) error {
	room := rc.sr.room

	var next *models.PlaylistItem
	for _, item := range room.ActiveItems() {
		if next == nil || item.PlaylistOrder < next.PlaylistOrder {
			next = item
		}
	}
	if next == nil {
		for _, item := range room.Playlist {
			if item.PlayedAt == nil {
				continue
			}
			if next == nil || item.PlayedAt.After(*next.PlayedAt) {
				next = item
			}
		}
	}
	if next == nil || next.ID == room.CurrentItemID {
		return nil
	}

	return rc.SetCurrentItem(scope, next.ID)
}

func (rc *roomContext) SetCurrentItem(scope *envelope.Scope, itemID int64) error {
	room := rc.sr.room
	if room.ItemByID(itemID) == nil {
		return models.Reject(constants.RejectReasonItemNotFound)
	}
	if itemID == room.CurrentItemID {
		return nil
	}

	if err := rc.hub.store.SetRoomCurrentItem(scope.Ctx, room.ID, itemID); err != nil {
		return err
	}

	room.CurrentItemID = itemID
	rc.Broadcast(scope, models.NewEvent(models.EventCurrentItemChanged, itemID))

	return nil
}

func (rc *roomContext) ExpireCurrentItem(scope *envelope.Scope) error {
	room := rc.sr.room
	current := room.CurrentItem()
	if current == nil {
		return models.Reject(constants.RejectReasonNoCurrentItem)
	}

	now := time.Now()
	if err := rc.hub.store.MarkItemPlayed(scope.Ctx, room.ID, current.ID, now); err != nil {
		return err
	}
	current.MarkPlayed(now)
	rc.Broadcast(scope, models.NewEvent(models.EventPlaylistItemChanged, current))

	return rc.UpdateQueueOrder(scope)
}

func (rc *roomContext) BeginGameplay(scope *envelope.Scope) {
	room := rc.sr.room
	room.State = models.RoomStatePlaying
	for _, user := range room.Users {
		if user.Status == models.UserStatusReady || user.Status == models.UserStatusIdle {
			user.Status = models.UserStatusPlaying
		}
	}

	rc.Broadcast(scope, models.NewEvent(models.EventMatchStarted, room.CurrentItemID))
	scope.Log.Info("gameplay started")
}

func (rc *roomContext) EndGameplay(scope *envelope.Scope) {
	room := rc.sr.room
	room.State = models.RoomStateOpen
	for _, user := range room.Users {
		if user.Status == models.UserStatusPlaying {
			user.Status = models.UserStatusIdle
		}
	}

	rc.Broadcast(scope, models.NewEvent(models.EventRoomStateChanged, room.State))
	scope.Log.Info("gameplay ended")
}

func (rc *roomContext) CloseRoom(scope *envelope.Scope) {
	rc.sr.closeRequested = true
	scope.Log.Info("room close requested")
}
