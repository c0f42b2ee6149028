// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

// UserStatus is the per-room status of one roster member.
type UserStatus string

const (
	UserStatusIdle    UserStatus = "idle"
	UserStatusReady   UserStatus = "ready"
	UserStatusPlaying UserStatus = "playing"
)

// RoomUser is one roster entry. TeamID is zero outside team-versus rooms.
type RoomUser struct {
	UserID int64      `json:"user_id"`
	Status UserStatus `json:"status"`
	TeamID int        `json:"team_id,omitempty"`

	// MatchDetails is the controller-owned public view of this user
	// (team assignment, ranked-play health and hand size, ...).
	MatchDetails interface{} `json:"match_details,omitempty"`
}

// UserSession is the payload tracked by the users entity store. It records
// which room, if any, the connection is currently joined to.
type UserSession struct {
	UserID        int64
	CurrentRoomID *int64
}
