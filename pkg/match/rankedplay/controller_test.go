// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rankedplay

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppy/osu-server-spectator-sub002/pkg/config"
	"github.com/ppy/osu-server-spectator-sub002/pkg/constants"
	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/match"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
	"github.com/ppy/osu-server-spectator-sub002/pkg/persistence"
	"github.com/ppy/osu-server-spectator-sub002/pkg/ratings"
	"github.com/ppy/osu-server-spectator-sub002/pkg/testsetup"
)

type armedCountdown struct {
	duration time.Duration
	callback match.CountdownCallback
}

// fakeAccess is a deterministic match.RoomAccess: countdowns are recorded
// instead of scheduled and the test fires them by hand.
type fakeAccess struct {
	room   *models.Room
	cfg    *config.Config
	store  *testsetup.StubStore
	engine ratings.Engine

	countdowns map[models.CountdownKind]*armedCountdown

	currentSets    []int64
	expiredItems   []int64
	gameplayBegun  int
	gameplayEnded  int
	closeRequested bool
}

func newFakeAccess(room *models.Room) *fakeAccess {
	return &fakeAccess{
		room:       room,
		cfg:        &config.Config{},
		store:      testsetup.NewStubStore(),
		engine:     testsetup.NewRatings(),
		countdowns: map[models.CountdownKind]*armedCountdown{},
	}
}

func (f *fakeAccess) Room() *models.Room       { return f.room }
func (f *fakeAccess) Config() *config.Config   { return f.cfg }
func (f *fakeAccess) Store() persistence.Store { return f.store }
func (f *fakeAccess) Ratings() ratings.Engine  { return f.engine }

func (f *fakeAccess) Broadcast(scope *envelope.Scope, event models.Event) {}

func (f *fakeAccess) NotifyUser(scope *envelope.Scope, userID int64, event models.Event) {}

func (f *fakeAccess) StartCountdown(scope *envelope.Scope, kind models.CountdownKind, duration time.Duration, onComplete match.CountdownCallback) {
	f.countdowns[kind] = &armedCountdown{duration: duration, callback: onComplete}
}

func (f *fakeAccess) StopCountdown(scope *envelope.Scope, kind models.CountdownKind) {
	delete(f.countdowns, kind)
}

func (f *fakeAccess) UpdateQueueOrder(scope *envelope.Scope) error { return nil }

func (f *fakeAccess) SetCurrentItem(scope *envelope.Scope, itemID int64) error {
	f.currentSets = append(f.currentSets, itemID)
	f.room.CurrentItemID = itemID
	return nil
}

func (f *fakeAccess) ExpireCurrentItem(scope *envelope.Scope) error {
	f.expiredItems = append(f.expiredItems, f.room.CurrentItemID)
	if item := f.room.CurrentItem(); item != nil {
		item.MarkPlayed(time.Now())
	}
	return nil
}

func (f *fakeAccess) BeginGameplay(scope *envelope.Scope) {
	f.gameplayBegun++
	f.room.State = models.RoomStatePlaying
}

func (f *fakeAccess) EndGameplay(scope *envelope.Scope) {
	f.gameplayEnded++
	f.room.State = models.RoomStateOpen
}

func (f *fakeAccess) CloseRoom(scope *envelope.Scope) {
	f.closeRequested = true
}

// fire runs the pending countdown of the kind, as natural expiry would.
func (f *fakeAccess) fire(scope *envelope.Scope, kind models.CountdownKind) {
	entry, ok := f.countdowns[kind]
	if !ok {
		return
	}
	delete(f.countdowns, kind)
	entry.callback(scope, f)
}

func testRoom(itemCount int) *models.Room {
	room := &models.Room{
		ID:     7,
		HostID: 1,
		State:  models.RoomStateOpen,
		Settings: models.RoomSettings{
			MatchType: models.MatchTypeRankedPlay,
			PoolID:    1,
		},
	}
	for i := 0; i < itemCount; i++ {
		room.Playlist = append(room.Playlist, &models.PlaylistItem{
			ID:            int64(i + 1),
			RoomID:        room.ID,
			OwnerID:       1,
			PlaylistOrder: int32(i),
		})
	}
	return room
}

func newControllerForTest(t *testing.T, room *models.Room) (*RankedPlay, *fakeAccess, *envelope.Scope) {
	t.Helper()

	access := newFakeAccess(room)
	controller := New(access, rand.NewSource(42)).(*RankedPlay)

	scope := testsetup.NewTestScope()
	t.Cleanup(scope.Finish)
	require.NoError(t, controller.Initialise(scope))

	return controller, access, scope
}

func joinUser(t *testing.T, c *RankedPlay, scope *envelope.Scope, userID int64) *models.RoomUser {
	t.Helper()

	require.NoError(t, c.UserCanJoin(userID))
	user := &models.RoomUser{UserID: userID, Status: models.UserStatusIdle}
	c.access.Room().Users = append(c.access.Room().Users, user)
	require.NoError(t, c.HandleUserJoined(scope, user))

	return user
}

// advanceToDiscard joins two users and walks the machine into round one's
// discard stage.
func advanceToDiscard(t *testing.T, c *RankedPlay, access *fakeAccess, scope *envelope.Scope) {
	t.Helper()

	joinUser(t, c, scope, 1)
	joinUser(t, c, scope, 2)

	require.Equal(t, StageRoundWarmup, c.state().Stage)
	access.fire(scope, models.CountdownStage)
	require.Equal(t, StageDiscard, c.state().Stage)
}

func TestInitialise_BuildsDeckAndWaits(t *testing.T) {
	t.Parallel()

	c, access, _ := newControllerForTest(t, testRoom(10))

	s := c.state()
	assert.Equal(t, StageWaitForJoin, s.Stage)
	assert.Len(t, s.Deck, 10)
	assert.Equal(t, 0, s.Round)

	// The waiting stage has no timeout, so nothing is armed.
	assert.Empty(t, access.countdowns)
}

func TestJoin_SecondUserStartsRoundOne(t *testing.T) {
	t.Parallel()

	c, access, scope := newControllerForTest(t, testRoom(10))

	joinUser(t, c, scope, 1)
	assert.Equal(t, StageWaitForJoin, c.state().Stage)

	joinUser(t, c, scope, 2)

	s := c.state()
	assert.Equal(t, StageRoundWarmup, s.Stage)
	assert.Equal(t, 1, s.Round)

	// Both hands are topped up and the warmup countdown is armed.
	assert.Len(t, s.player(1).Hand, constants.RankedPlayHandSize)
	assert.Len(t, s.player(2).Hand, constants.RankedPlayHandSize)
	require.Contains(t, access.countdowns, models.CountdownStage)
	assert.Equal(t, constants.RoundWarmupDuration, access.countdowns[models.CountdownStage].duration)
}

func TestUserCanJoin_Rejections(t *testing.T) {
	t.Parallel()

	c, _, scope := newControllerForTest(t, testRoom(10))

	joinUser(t, c, scope, 1)
	joinUser(t, c, scope, 2)

	// The room is full and past the waiting stage.
	err := c.UserCanJoin(3)
	reason, ok := models.RejectionReason(err)
	require.True(t, ok)
	assert.Equal(t, constants.RejectReasonMatchInProgress, reason)
}

func TestDiscard_StageHoldsUntilAllActed(t *testing.T) {
	t.Parallel()

	c, access, scope := newControllerForTest(t, testRoom(10))
	advanceToDiscard(t, c, access, scope)

	s := c.state()
	one := s.player(1)
	discard := models.DiscardCardsRequest{CardIDs: []int64{one.Hand[0].ID}}
	require.NoError(t, c.HandleUserRequest(scope, &models.RoomUser{UserID: 1}, discard))

	// Discarded cards are replaced from the deck; the stage waits for the
	// second user.
	assert.Equal(t, StageDiscard, s.Stage)
	assert.Len(t, one.Hand, constants.RankedPlayHandSize)
	assert.Equal(t, constants.DiscardStageDuration, access.countdowns[models.CountdownStage].duration)

	require.NoError(t, c.HandleUserRequest(scope, &models.RoomUser{UserID: 2}, models.DiscardCardsRequest{}))

	// Both have acted: the stage countdown is replaced by the grace delay and
	// only then advances.
	assert.Equal(t, StageDiscard, s.Stage)
	require.Contains(t, access.countdowns, models.CountdownStage)
	assert.Equal(t, constants.StageGraceDelay, access.countdowns[models.CountdownStage].duration)

	access.fire(scope, models.CountdownStage)
	assert.Equal(t, StagePlay, s.Stage)
}

func TestDiscard_Rejections(t *testing.T) {
	t.Parallel()

	c, access, scope := newControllerForTest(t, testRoom(10))
	advanceToDiscard(t, c, access, scope)

	s := c.state()
	hand := s.player(1).Hand

	tests := []struct {
		name    string
		cardIDs []int64
		want    string
	}{
		{
			name:    "too many cards",
			cardIDs: []int64{hand[0].ID, hand[1].ID, hand[2].ID},
			want:    constants.RejectReasonDiscardLimit,
		},
		{
			name:    "card not held",
			cardIDs: []int64{99999},
			want:    constants.RejectReasonCardNotHeld,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := c.HandleUserRequest(scope, &models.RoomUser{UserID: 1}, models.DiscardCardsRequest{CardIDs: tt.cardIDs})
			reason, ok := models.RejectionReason(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, reason)
		})
	}

	// Acting twice in the stage is rejected too.
	require.NoError(t, c.HandleUserRequest(scope, &models.RoomUser{UserID: 1}, models.DiscardCardsRequest{}))
	err := c.HandleUserRequest(scope, &models.RoomUser{UserID: 1}, models.DiscardCardsRequest{})
	reason, ok := models.RejectionReason(err)
	require.True(t, ok)
	assert.Equal(t, constants.RejectReasonAlreadyActed, reason)
}

func TestDiscard_DuplicateCardIDsRejected(t *testing.T) {
	t.Parallel()

	c, access, scope := newControllerForTest(t, testRoom(10))
	advanceToDiscard(t, c, access, scope)

	s := c.state()
	one := s.player(1)
	last := one.Hand[len(one.Hand)-1]

	err := c.HandleUserRequest(scope, &models.RoomUser{UserID: 1},
		models.DiscardCardsRequest{CardIDs: []int64{last.ID, last.ID}})
	reason, ok := models.RejectionReason(err)
	require.True(t, ok)
	assert.Equal(t, constants.RejectReasonCardNotHeld, reason)

	// The hand is untouched and the user has not acted.
	assert.Len(t, one.Hand, constants.RankedPlayHandSize)
	assert.False(t, one.Discarded)
}

func TestInitialise_FullRosterSkipsWaiting(t *testing.T) {
	t.Parallel()

	// A controller swap onto a populated room must not wedge in the waiting
	// stage with joins rejected and no countdown armed.
	room := testRoom(10)
	room.Users = []*models.RoomUser{
		{UserID: 1, Status: models.UserStatusIdle},
		{UserID: 2, Status: models.UserStatusIdle},
	}

	access := newFakeAccess(room)
	scope := testsetup.NewTestScope()
	t.Cleanup(scope.Finish)

	c := New(access, rand.NewSource(42)).(*RankedPlay)
	require.NoError(t, c.Initialise(scope))

	s := c.state()
	assert.Equal(t, StageRoundWarmup, s.Stage)
	assert.Equal(t, 1, s.Round)
	assert.Len(t, s.player(1).Hand, constants.RankedPlayHandSize)
	require.Contains(t, access.countdowns, models.CountdownStage)
	assert.Equal(t, constants.RoundWarmupDuration, access.countdowns[models.CountdownStage].duration)
}

func TestPlay_WrongStageRejected(t *testing.T) {
	t.Parallel()

	c, access, scope := newControllerForTest(t, testRoom(10))
	advanceToDiscard(t, c, access, scope)

	err := c.HandleUserRequest(scope, &models.RoomUser{UserID: 1}, models.PlayCardRequest{CardID: 1})
	reason, ok := models.RejectionReason(err)
	require.True(t, ok)
	assert.Equal(t, constants.RejectReasonWrongStage, reason)
}

// advanceToGameplay walks a two-user room from the play stage into gameplay,
// with both users playing their first card.
func advanceToGameplay(t *testing.T, c *RankedPlay, access *fakeAccess, scope *envelope.Scope) {
	t.Helper()

	s := c.state()
	require.Equal(t, StagePlay, s.Stage)

	for _, userID := range []int64{1, 2} {
		p := s.player(userID)
		require.NoError(t, c.HandleUserRequest(scope, &models.RoomUser{UserID: userID},
			models.PlayCardRequest{CardID: p.Hand[0].ID}))
	}

	access.fire(scope, models.CountdownStage) // grace delay after both played
	require.Equal(t, StageFinish, s.Stage)
	require.NotEmpty(t, access.currentSets)

	access.fire(scope, models.CountdownStage) // zero-duration finish stage
	require.Equal(t, StageWarmup, s.Stage)

	access.fire(scope, models.CountdownStage) // warmup timer runs out
	require.Equal(t, StageGameplay, s.Stage)
	require.Equal(t, 1, access.gameplayBegun)
}

func TestRound_GameplayToResultsAppliesDamage(t *testing.T) {
	t.Parallel()

	c, access, scope := newControllerForTest(t, testRoom(10))
	advanceToDiscard(t, c, access, scope)
	for _, userID := range []int64{1, 2} {
		require.NoError(t, c.HandleUserRequest(scope, &models.RoomUser{UserID: userID}, models.DiscardCardsRequest{}))
	}
	access.fire(scope, models.CountdownStage)
	advanceToGameplay(t, c, access, scope)

	results := []models.GameplayResult{
		{UserID: 1, TotalScore: 1000, Passed: true},
		{UserID: 2, TotalScore: 500, Passed: true},
	}
	require.NoError(t, c.HandleGameplayCompleted(scope, results))

	s := c.state()
	assert.Equal(t, StageResults, s.Stage)
	assert.Equal(t, 1, access.gameplayEnded)
	assert.NotEmpty(t, access.expiredItems)

	// Half the winning score means base damage plus half the margin damage.
	wantDamage := constants.RankedPlayBaseDamage + constants.RankedPlayMarginDamage/2
	assert.Equal(t, constants.RankedPlayStartingHealth, s.player(1).Health)
	assert.Equal(t, constants.RankedPlayStartingHealth-wantDamage, s.player(2).Health)

	// Cards remain and both live: the next round warms up.
	access.fire(scope, models.CountdownStage)
	assert.Equal(t, StageRoundWarmup, s.Stage)
	assert.Equal(t, 2, s.Round)
}

func TestHandleUserLeft_DuringResultsDoesNotAbort(t *testing.T) {
	t.Parallel()

	c, access, scope := newControllerForTest(t, testRoom(10))
	advanceToDiscard(t, c, access, scope)
	for _, userID := range []int64{1, 2} {
		require.NoError(t, c.HandleUserRequest(scope, &models.RoomUser{UserID: userID}, models.DiscardCardsRequest{}))
	}
	access.fire(scope, models.CountdownStage)
	advanceToGameplay(t, c, access, scope)

	require.NoError(t, c.HandleGameplayCompleted(scope, []models.GameplayResult{
		{UserID: 1, TotalScore: 1000, Passed: true},
		{UserID: 2, TotalScore: 900, Passed: true},
	}))

	s := c.state()
	require.Equal(t, StageResults, s.Stage)
	healthBefore := s.player(1).Health

	leaver := c.access.Room().RemoveUser(2)
	require.NoError(t, c.HandleUserLeft(scope, leaver))

	// The leaver is dead, the survivor untouched, and the stage still runs
	// out its own countdown.
	assert.Equal(t, 0, s.player(2).Health)
	assert.Equal(t, healthBefore, s.player(1).Health)
	assert.Equal(t, StageResults, s.Stage)

	access.fire(scope, models.CountdownStage)
	assert.Equal(t, StageEnded, s.Stage)
	assert.True(t, access.closeRequested)
}

func TestHandleUserLeft_OutsideGameplayEndsRoom(t *testing.T) {
	t.Parallel()

	c, access, scope := newControllerForTest(t, testRoom(10))
	advanceToDiscard(t, c, access, scope)

	leaver := c.access.Room().RemoveUser(2)
	require.NoError(t, c.HandleUserLeft(scope, leaver))

	s := c.state()
	assert.Equal(t, StageEnded, s.Stage)
	assert.Equal(t, 0, s.player(2).Health)
	assert.True(t, access.closeRequested)
}

func TestEnded_FinalisePersistsResults(t *testing.T) {
	t.Parallel()

	c, access, scope := newControllerForTest(t, testRoom(10))
	advanceToDiscard(t, c, access, scope)

	leaver := c.access.Room().RemoveUser(2)
	require.NoError(t, c.HandleUserLeft(scope, leaver))

	require.Len(t, access.store.ResultRows, 2)
	byUser := map[int64]*models.MatchResultRow{}
	for _, row := range access.store.ResultRows {
		byUser[row.UserID] = row
	}

	assert.Equal(t, 1, byUser[1].Placement)
	assert.Equal(t, 2, byUser[2].Placement)
	assert.Equal(t, 0, byUser[2].FinalHealth)
}

func TestItemAdded_RejectsNonDefaultRuleset(t *testing.T) {
	t.Parallel()

	c, _, scope := newControllerForTest(t, testRoom(10))

	err := c.ItemAdded(scope, &models.PlaylistItem{ID: 42, RulesetID: 2})
	reason, ok := models.RejectionReason(err)
	require.True(t, ok)
	assert.Equal(t, constants.RejectReasonUnsupportedRuleset, reason)
}

func TestItemAddedAndRemoved_AdjustDeck(t *testing.T) {
	t.Parallel()

	c, _, scope := newControllerForTest(t, testRoom(10))
	s := c.state()

	require.NoError(t, c.ItemAdded(scope, &models.PlaylistItem{ID: 42}))
	assert.Len(t, s.Deck, 11)

	require.NoError(t, c.ItemRemoved(scope, &models.PlaylistItem{ID: 42}))
	assert.Len(t, s.Deck, 10)
}

func TestMatchDetails_HidesHands(t *testing.T) {
	t.Parallel()

	c, _, scope := newControllerForTest(t, testRoom(10))
	joinUser(t, c, scope, 1)
	joinUser(t, c, scope, 2)

	public := c.MatchDetails().(*PublicState)
	require.Len(t, public.Players, 2)
	assert.Equal(t, constants.RankedPlayHandSize, public.Players[0].HandSize)
}
