// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package persistence defines the storage contract the room server core
// depends on, plus the postgres implementation of it.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

// ErrRoomNotFound is returned when a room does not exist in storage.
var ErrRoomNotFound = errors.New("room not found in storage")

// Store is the relational storage contract. Implementations must make
// MarkItemPlayed and InsertResultRow idempotent; everything else is
// last-write-wins under the room's usage lock.
type Store interface {
	// FetchRoom loads a room row together with its full playlist.
	FetchRoom(ctx context.Context, roomID int64) (*models.Room, error)

	UpdateRoomSettings(ctx context.Context, roomID int64, settings models.RoomSettings) error
	SetRoomCurrentItem(ctx context.Context, roomID int64, itemID int64) error
	MarkRoomEnded(ctx context.Context, roomID int64, endedAt time.Time) error

	// UpdateParticipantCount also refreshes the room's host display inside a
	// single transaction. Callers treat failures as best-effort bookkeeping.
	UpdateParticipantCount(ctx context.Context, roomID int64, count int, hostID int64) error

	AddPlaylistItem(ctx context.Context, item *models.PlaylistItem) (int64, error)
	UpdatePlaylistItem(ctx context.Context, item *models.PlaylistItem) error
	RemovePlaylistItem(ctx context.Context, roomID int64, itemID int64) error
	MarkItemPlayed(ctx context.Context, roomID int64, itemID int64, playedAt time.Time) error

	GetUserStats(ctx context.Context, userID int64, poolID int64) (*models.UserStats, error)
	UpsertUserStats(ctx context.Context, stats *models.UserStats) error
	InsertResultRow(ctx context.Context, row *models.MatchResultRow) error

	Close()
}
