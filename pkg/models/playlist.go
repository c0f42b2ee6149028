// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import "time"

// OrderUnset marks an item that has not yet been placed by the queue
// scheduler. Unset items sort after every placed item.
const OrderUnset int32 = -1

// PlaylistItem is one queued unit of content belonging to a room and owner.
type PlaylistItem struct {
	ID      int64 `json:"id"`
	RoomID  int64 `json:"room_id"`
	OwnerID int64 `json:"owner_id"`

	BeatmapID  int64   `json:"beatmap_id"`
	RulesetID  int     `json:"ruleset_id"`
	StarRating float64 `json:"star_rating"`

	Expired  bool       `json:"expired"`
	PlayedAt *time.Time `json:"played_at,omitempty"`

	// PlaylistOrder is the dense room-scoped position assigned by the queue
	// scheduler, or OrderUnset for a freshly added item.
	PlaylistOrder int32 `json:"playlist_order"`
}

// MarkPlayed expires the item. Idempotent: a second call keeps the original
// played time.
func (i *PlaylistItem) MarkPlayed(at time.Time) {
	i.Expired = true
	if i.PlayedAt == nil {
		i.PlayedAt = &at
	}
}
