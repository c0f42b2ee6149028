// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rooms

import (
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
	"github.com/ppy/osu-server-spectator-sub002/pkg/testsetup"
)

func (f *hubFixture) roomState(t *testing.T) models.RoomState {
	t.Helper()
	room, ok := f.hub.RoomSnapshotUnsafe(1)
	require.True(t, ok)
	return room.State
}

func TestMatchStartCountdown_FiresNoEarlierThanDuration(t *testing.T) {
	// Runs alone: the elapsed-time assertion is too tight for a loaded
	// parallel scheduler.
	g := testsetup.WithGomega(t)
	f := newHubFixture(t)

	require.NoError(t, f.hub.JoinRoom(g.TestScope, 1, 10, ""))

	const duration = 80 * time.Millisecond
	started := time.Now()
	require.NoError(t, f.hub.StartMatchCountdown(g.TestScope, 1, 10, duration))
	assert.Len(t, f.notifier.Named(models.EventCountdownStarted), 1)

	// Not a tick before the duration has passed.
	assert.Equal(t, models.RoomStateOpen, f.roomState(t))

	g.Eventually(func() models.RoomState {
		return f.roomState(t)
	}).WithTimeout(2 * time.Second).Should(gomega.Equal(models.RoomStatePlaying))

	assert.GreaterOrEqual(t, time.Since(started), duration)
}

func TestMatchStartCountdown_ReplacementCancelsPrevious(t *testing.T) {
	g := testsetup.WithGomega(t)
	f := newHubFixture(t)

	require.NoError(t, f.hub.JoinRoom(g.TestScope, 1, 10, ""))

	require.NoError(t, f.hub.StartMatchCountdown(g.TestScope, 1, 10, 30*time.Millisecond))
	require.NoError(t, f.hub.StartMatchCountdown(g.TestScope, 1, 10, 500*time.Millisecond))

	// The first countdown's expiry must not start the match.
	g.Consistently(func() models.RoomState {
		return f.roomState(t)
	}).WithTimeout(200 * time.Millisecond).Should(gomega.Equal(models.RoomStateOpen))

	g.Eventually(func() models.RoomState {
		return f.roomState(t)
	}).WithTimeout(2 * time.Second).Should(gomega.Equal(models.RoomStatePlaying))
}

func TestStopMatchCountdown_CallbackNeverFires(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newHubFixture(t)

	require.NoError(t, f.hub.JoinRoom(g.TestScope, 1, 10, ""))

	require.NoError(t, f.hub.StartMatchCountdown(g.TestScope, 1, 10, 30*time.Millisecond))
	require.NoError(t, f.hub.StopMatchCountdown(g.TestScope, 1, 10))
	assert.Len(t, f.notifier.Named(models.EventCountdownStopped), 1)

	g.Consistently(func() models.RoomState {
		return f.roomState(t)
	}).WithTimeout(200 * time.Millisecond).Should(gomega.Equal(models.RoomStateOpen))
}

func TestStartMatch_CancelsPendingCountdown(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newHubFixture(t)

	require.NoError(t, f.hub.JoinRoom(g.TestScope, 1, 10, ""))

	require.NoError(t, f.hub.StartMatchCountdown(g.TestScope, 1, 10, 50*time.Millisecond))
	require.NoError(t, f.hub.StartMatch(g.TestScope, 1, 10))
	require.NoError(t, f.hub.GameplayCompleted(g.TestScope, 1, []models.GameplayResult{
		{UserID: 10, TotalScore: 100, Passed: true},
	}))

	// Were the countdown still alive it would restart the match after expiry.
	g.Consistently(func() models.RoomState {
		return f.roomState(t)
	}).WithTimeout(200 * time.Millisecond).Should(gomega.Equal(models.RoomStateOpen))
}
