// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rooms

import (
	"github.com/ppy/osu-server-spectator-sub002/pkg/constants"
	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

// AddItem queues a new playlist item for the user. Non-hosts are bound by the
// per-user unplayed item limit.
func (h *Hub) AddItem(rootScope *envelope.Scope, roomID int64, userID int64, item models.PlaylistItem) error {
	scope := rootScope.NewChildScope("hub.AddItem").WithRoom(roomID).WithUser(userID)
	defer scope.Finish()

	roomUsage, sr, err := h.roomForUser(scope, roomID, userID)
	if err != nil {
		return h.operationFailed(scope, constants.AddItemOperation, err)
	}
	defer roomUsage.Release()
	defer h.settleRoom(scope, roomUsage, sr)

	room := sr.room
	if !room.IsHost(userID) && room.ActiveItemCountFor(userID) >= h.cfg.UserItemLimit {
		return h.operationFailed(scope, constants.AddItemOperation, models.Reject(constants.RejectReasonEnqueueLimit))
	}

	item.RoomID = roomID
	item.OwnerID = userID
	item.Expired = false
	item.PlayedAt = nil
	item.PlaylistOrder = models.OrderUnset

	if err := sr.controller.ItemAdded(scope, &item); err != nil {
		return h.operationFailed(scope, constants.AddItemOperation, err)
	}

	itemID, err := h.store.AddPlaylistItem(scope.Ctx, &item)
	if err != nil {
		return h.operationFailed(scope, constants.AddItemOperation, err)
	}
	item.ID = itemID
	room.Playlist = append(room.Playlist, &item)

	h.notifier.ToRoom(scope, roomID, models.NewEvent(models.EventPlaylistItemAdded, &item))

	access := &roomContext{hub: h, sr: sr}
	if err := access.UpdateQueueOrder(scope); err != nil {
		return h.operationFailed(scope, constants.AddItemOperation, err)
	}

	return nil
}

// EditItem replaces the content of an unplayed item owned by the user. The
// host may edit anyone's items.
func (h *Hub) EditItem(rootScope *envelope.Scope, roomID int64, userID int64, updated models.PlaylistItem) error {
	scope := rootScope.NewChildScope("hub.EditItem").WithRoom(roomID).WithUser(userID)
	defer scope.Finish()

	roomUsage, sr, err := h.roomForUser(scope, roomID, userID)
	if err != nil {
		return h.operationFailed(scope, constants.EditItemOperation, err)
	}
	defer roomUsage.Release()
	defer h.settleRoom(scope, roomUsage, sr)

	item, err := h.editableItem(sr.room, updated.ID, userID)
	if err != nil {
		return h.operationFailed(scope, constants.EditItemOperation, err)
	}

	previous := *item
	item.BeatmapID = updated.BeatmapID
	item.RulesetID = updated.RulesetID
	item.StarRating = updated.StarRating

	if err := sr.controller.ItemEdited(scope, item); err != nil {
		*item = previous
		return h.operationFailed(scope, constants.EditItemOperation, err)
	}

	if err := h.store.UpdatePlaylistItem(scope.Ctx, item); err != nil {
		*item = previous
		return h.operationFailed(scope, constants.EditItemOperation, err)
	}

	h.notifier.ToRoom(scope, roomID, models.NewEvent(models.EventPlaylistItemChanged, item))

	return nil
}

// RemoveItem deletes an unplayed, non-current item owned by the user. The
// host may remove anyone's items.
func (h *Hub) RemoveItem(rootScope *envelope.Scope, roomID int64, userID int64, itemID int64) error {
	scope := rootScope.NewChildScope("hub.RemoveItem").WithRoom(roomID).WithUser(userID)
	defer scope.Finish()

	roomUsage, sr, err := h.roomForUser(scope, roomID, userID)
	if err != nil {
		return h.operationFailed(scope, constants.RemoveItemOperation, err)
	}
	defer roomUsage.Release()
	defer h.settleRoom(scope, roomUsage, sr)

	room := sr.room
	item, err := h.editableItem(room, itemID, userID)
	if err != nil {
		return h.operationFailed(scope, constants.RemoveItemOperation, err)
	}
	if itemID == room.CurrentItemID {
		return h.operationFailed(scope, constants.RemoveItemOperation, models.Reject(constants.RejectReasonItemIsCurrent))
	}

	if err := sr.controller.ItemRemoved(scope, item); err != nil {
		return h.operationFailed(scope, constants.RemoveItemOperation, err)
	}

	if err := h.store.RemovePlaylistItem(scope.Ctx, roomID, itemID); err != nil {
		return h.operationFailed(scope, constants.RemoveItemOperation, err)
	}

	for i, existing := range room.Playlist {
		if existing.ID == itemID {
			room.Playlist = append(room.Playlist[:i], room.Playlist[i+1:]...)
			break
		}
	}

	h.notifier.ToRoom(scope, roomID, models.NewEvent(models.EventPlaylistItemRemoved, itemID))

	access := &roomContext{hub: h, sr: sr}
	if err := access.UpdateQueueOrder(scope); err != nil {
		return h.operationFailed(scope, constants.RemoveItemOperation, err)
	}

	return nil
}

// editableItem resolves an item and checks it is unplayed and owned by the
// caller (or the caller is host).
func (h *Hub) editableItem(room *models.Room, itemID int64, userID int64) (*models.PlaylistItem, error) {
	item := room.ItemByID(itemID)
	if item == nil {
		return nil, models.Reject(constants.RejectReasonItemNotFound)
	}
	if item.Expired {
		return nil, models.Reject(constants.RejectReasonItemExpired)
	}
	if item.OwnerID != userID && !room.IsHost(userID) {
		return nil, models.Reject(constants.RejectReasonItemNotOwned)
	}
	return item, nil
}
