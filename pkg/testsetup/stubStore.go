// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"context"
	"sync"
	"time"

	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
	"github.com/ppy/osu-server-spectator-sub002/pkg/persistence"
)

// StubStore is an in-memory persistence.Store. Rooms returned by FetchRoom
// are deep enough copies that hub mutations never leak back into the fixture.
type StubStore struct {
	mu sync.Mutex

	Rooms map[int64]*models.Room
	Stats map[int64]map[int64]*models.UserStats

	ResultRows   []*models.MatchResultRow
	ItemUpdates  int
	EndedRooms   []int64
	nextItemID   int64
	FetchRoomErr error
}

func NewStubStore() *StubStore {
	return &StubStore{
		Rooms:      map[int64]*models.Room{},
		Stats:      map[int64]map[int64]*models.UserStats{},
		nextItemID: 1000,
	}
}

func (s *StubStore) FetchRoom(ctx context.Context, roomID int64) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FetchRoomErr != nil {
		return nil, s.FetchRoomErr
	}

	fixture, ok := s.Rooms[roomID]
	if !ok {
		return nil, persistence.ErrRoomNotFound
	}

	room := *fixture
	room.Users = nil
	room.Playlist = make([]*models.PlaylistItem, 0, len(fixture.Playlist))
	for _, item := range fixture.Playlist {
		copied := *item
		room.Playlist = append(room.Playlist, &copied)
	}
	if room.State == "" {
		room.State = models.RoomStateOpen
	}

	return &room, nil
}

func (s *StubStore) UpdateRoomSettings(ctx context.Context, roomID int64, settings models.RoomSettings) error {
	return nil
}

func (s *StubStore) SetRoomCurrentItem(ctx context.Context, roomID int64, itemID int64) error {
	return nil
}

func (s *StubStore) MarkRoomEnded(ctx context.Context, roomID int64, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EndedRooms = append(s.EndedRooms, roomID)
	return nil
}

func (s *StubStore) UpdateParticipantCount(ctx context.Context, roomID int64, count int, hostID int64) error {
	return nil
}

func (s *StubStore) AddPlaylistItem(ctx context.Context, item *models.PlaylistItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItemID++
	return s.nextItemID, nil
}

func (s *StubStore) UpdatePlaylistItem(ctx context.Context, item *models.PlaylistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ItemUpdates++
	return nil
}

func (s *StubStore) RemovePlaylistItem(ctx context.Context, roomID int64, itemID int64) error {
	return nil
}

func (s *StubStore) MarkItemPlayed(ctx context.Context, roomID int64, itemID int64, playedAt time.Time) error {
	return nil
}

func (s *StubStore) GetUserStats(ctx context.Context, userID int64, poolID int64) (*models.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.Stats[poolID]
	if !ok {
		return nil, nil
	}
	stats, ok := pool[userID]
	if !ok {
		return nil, nil
	}

	copied := *stats
	return &copied, nil
}

func (s *StubStore) UpsertUserStats(ctx context.Context, stats *models.UserStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Stats[stats.PoolID] == nil {
		s.Stats[stats.PoolID] = map[int64]*models.UserStats{}
	}
	copied := *stats
	s.Stats[stats.PoolID][stats.UserID] = &copied

	return nil
}

func (s *StubStore) InsertResultRow(ctx context.Context, row *models.MatchResultRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.ResultRows {
		if existing.RoomID == row.RoomID && existing.UserID == row.UserID {
			return nil
		}
	}
	s.ResultRows = append(s.ResultRows, row)

	return nil
}

func (s *StubStore) Close() {}
