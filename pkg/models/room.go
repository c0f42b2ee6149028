// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package models contains the data structures shared by the room server core:
// rooms, their rosters and playlists, countdowns, broadcast events and the
// rejected-request error type surfaced to the protocol layer.
package models

import (
	"time"
)

// QueueMode governs how a room's playlist is ordered.
type QueueMode string

const (
	// QueueModeOwnerPriority keeps items in plain insertion order.
	QueueModeOwnerPriority QueueMode = "owner_priority"
	// QueueModeRoundRobin interleaves one item per owner per cycle.
	QueueModeRoundRobin QueueMode = "round_robin"
)

// MatchType selects which match controller drives a room.
type MatchType string

const (
	MatchTypeHeadToHead MatchType = "head_to_head"
	MatchTypeTeamVersus MatchType = "team_versus"
	MatchTypeRankedPlay MatchType = "ranked_play"
)

// RoomState is the coarse room lifecycle, orthogonal to ranked-play stages.
type RoomState string

const (
	RoomStateOpen    RoomState = "open"
	RoomStatePlaying RoomState = "playing"
	RoomStateClosed  RoomState = "closed"
)

type RoomSettings struct {
	Name      string    `json:"name"`
	Password  string    `json:"-"`
	MatchType MatchType `json:"match_type"`
	QueueMode QueueMode `json:"queue_mode"`

	// PoolID selects the rating pool used when a ranked room finalises.
	PoolID int64 `json:"pool_id"`
}

// Room is the session handle tracked by the entity store. Every field may only
// be read or written while the caller holds the room's usage lock.
type Room struct {
	ID       int64        `json:"id"`
	Settings RoomSettings `json:"settings"`
	HostID   int64        `json:"host_id"`
	State    RoomState    `json:"state"`

	Users    []*RoomUser     `json:"users"`
	Playlist []*PlaylistItem `json:"playlist"`

	CurrentItemID    int64      `json:"current_item_id"`
	ParticipantCount int        `json:"participant_count"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`

	// MatchState is owned by the active match controller and opaque to the
	// rest of the core.
	MatchState interface{} `json:"match_state,omitempty"`
}

func (r *Room) FindUser(userID int64) *RoomUser {
	for _, u := range r.Users {
		if u.UserID == userID {
			return u
		}
	}
	return nil
}

func (r *Room) RemoveUser(userID int64) *RoomUser {
	for i, u := range r.Users {
		if u.UserID == userID {
			r.Users = append(r.Users[:i], r.Users[i+1:]...)
			return u
		}
	}
	return nil
}

func (r *Room) IsHost(userID int64) bool {
	return r.HostID == userID
}

// ActiveItems returns the non-expired playlist items in insertion order.
func (r *Room) ActiveItems() []*PlaylistItem {
	items := make([]*PlaylistItem, 0, len(r.Playlist))
	for _, item := range r.Playlist {
		if !item.Expired {
			items = append(items, item)
		}
	}
	return items
}

func (r *Room) ItemByID(itemID int64) *PlaylistItem {
	for _, item := range r.Playlist {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// CurrentItem resolves the room's current playlist item, or nil when the
// playlist is empty.
func (r *Room) CurrentItem() *PlaylistItem {
	return r.ItemByID(r.CurrentItemID)
}

// ActiveItemCountFor counts the unplayed items a user has queued, used to
// enforce the per-user enqueue limit.
func (r *Room) ActiveItemCountFor(userID int64) int {
	count := 0
	for _, item := range r.Playlist {
		if !item.Expired && item.OwnerID == userID {
			count++
		}
	}
	return count
}
