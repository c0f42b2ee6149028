// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package match

import (
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppy/osu-server-spectator-sub002/pkg/config"
	"github.com/ppy/osu-server-spectator-sub002/pkg/constants"
	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
	"github.com/ppy/osu-server-spectator-sub002/pkg/persistence"
	"github.com/ppy/osu-server-spectator-sub002/pkg/ratings"
	"github.com/ppy/osu-server-spectator-sub002/pkg/testsetup"
)

// noopAccess is the minimal RoomAccess for controllers that never touch
// countdowns or storage.
type noopAccess struct {
	room   *models.Room
	events []models.Event
}

func (f *noopAccess) Room() *models.Room       { return f.room }
func (f *noopAccess) Config() *config.Config   { return &config.Config{} }
func (f *noopAccess) Store() persistence.Store { return nil }
func (f *noopAccess) Ratings() ratings.Engine  { return nil }

func (f *noopAccess) Broadcast(scope *envelope.Scope, event models.Event) {
	f.events = append(f.events, event)
}

func (f *noopAccess) NotifyUser(scope *envelope.Scope, userID int64, event models.Event) {}

func (f *noopAccess) StartCountdown(scope *envelope.Scope, kind models.CountdownKind, duration time.Duration, onComplete CountdownCallback) {
}

func (f *noopAccess) StopCountdown(scope *envelope.Scope, kind models.CountdownKind) {}

func (f *noopAccess) UpdateQueueOrder(scope *envelope.Scope) error { return nil }

func (f *noopAccess) SetCurrentItem(scope *envelope.Scope, itemID int64) error { return nil }

func (f *noopAccess) ExpireCurrentItem(scope *envelope.Scope) error { return nil }

func (f *noopAccess) BeginGameplay(scope *envelope.Scope) {}

func (f *noopAccess) EndGameplay(scope *envelope.Scope) {}

func (f *noopAccess) CloseRoom(scope *envelope.Scope) {}

func join(t *testing.T, c Controller, access *noopAccess, scope *envelope.Scope, userID int64) *models.RoomUser {
	t.Helper()

	require.NoError(t, c.UserCanJoin(userID))
	user := &models.RoomUser{UserID: userID}
	access.room.Users = append(access.room.Users, user)
	require.NoError(t, c.HandleUserJoined(scope, user))

	return user
}

func TestTeamVersus_AssignsJoinersEvenly(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	access := &noopAccess{room: &models.Room{ID: 1}}
	c := NewTeamVersus(access)
	require.NoError(t, c.Initialise(g.TestScope))

	tests := []struct {
		userID   int64
		wantTeam int
	}{
		{userID: 1, wantTeam: 1}, // empty team preferred
		{userID: 2, wantTeam: 2}, // other team now empty
		{userID: 3, wantTeam: 1}, // sizes equal, lower ID wins
		{userID: 4, wantTeam: 2},
	}

	for _, tt := range tests {
		user := join(t, c, access, g.TestScope, tt.userID)
		assert.Equal(t, tt.wantTeam, user.TeamID, "user %d", tt.userID)
	}

	state := c.MatchDetails().(*TeamVersusState)
	g.Expect(state.TeamSizes).To(gomega.Equal(map[int]int{1: 2, 2: 2}))
}

func TestTeamVersus_LeaverFreesSeat(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	access := &noopAccess{room: &models.Room{ID: 1}}
	c := NewTeamVersus(access)
	require.NoError(t, c.Initialise(g.TestScope))

	join(t, c, access, g.TestScope, 1)
	two := join(t, c, access, g.TestScope, 2)
	join(t, c, access, g.TestScope, 3)

	access.room.RemoveUser(2)
	require.NoError(t, c.HandleUserLeft(g.TestScope, two))

	// Team 2 emptied, so the next joiner goes there.
	user := join(t, c, access, g.TestScope, 4)
	assert.Equal(t, 2, user.TeamID)
}

func TestTeamVersus_InitialiseKeepsValidAssignments(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	room := &models.Room{ID: 1, Users: []*models.RoomUser{
		{UserID: 1, TeamID: 2},
		{UserID: 2},
	}}
	access := &noopAccess{room: room}

	c := NewTeamVersus(access)
	require.NoError(t, c.Initialise(g.TestScope))

	assert.Equal(t, 2, room.Users[0].TeamID)
	assert.Equal(t, 1, room.Users[1].TeamID)
}

func TestTeamVersus_RejectsUnknownRequests(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	access := &noopAccess{room: &models.Room{ID: 1}}
	c := NewTeamVersus(access)

	err := c.HandleUserRequest(g.TestScope, &models.RoomUser{UserID: 1}, models.PlayCardRequest{CardID: 1})
	reason, ok := models.RejectionReason(err)
	require.True(t, ok)
	assert.Equal(t, constants.RejectReasonUnknownRequest, reason)
}

func TestHeadToHead_InitialiseStripsMatchState(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	room := &models.Room{
		ID:         1,
		MatchState: &TeamVersusState{},
		Users: []*models.RoomUser{
			{UserID: 1, TeamID: 2, MatchDetails: "leftover"},
		},
	}
	access := &noopAccess{room: room}

	c := NewHeadToHead(access)
	require.NoError(t, c.Initialise(g.TestScope))

	assert.Nil(t, room.MatchState)
	assert.Equal(t, 0, room.Users[0].TeamID)
	assert.Nil(t, room.Users[0].MatchDetails)
	assert.Nil(t, c.MatchDetails())
}
