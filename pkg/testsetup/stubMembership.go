// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"context"
	"sync"
)

// StubMembership is a no-op interop.Membership that records calls and can be
// told to fail.
type StubMembership struct {
	mu sync.Mutex

	CreatedRooms []int64
	AddedUsers   []int64
	RemovedUsers []int64

	AddUserErr error
}

func NewStubMembership() *StubMembership {
	return &StubMembership{}
}

func (s *StubMembership) CreateRoom(ctx context.Context, roomID int64, hostID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreatedRooms = append(s.CreatedRooms, roomID)
	return nil
}

func (s *StubMembership) AddUser(ctx context.Context, roomID int64, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AddUserErr != nil {
		return s.AddUserErr
	}
	s.AddedUsers = append(s.AddedUsers, userID)
	return nil
}

func (s *StubMembership) RemoveUser(ctx context.Context, roomID int64, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RemovedUsers = append(s.RemovedUsers, userID)
	return nil
}
