// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rooms

import (
	"context"
	"time"

	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/match"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

// countdownEntry is one armed countdown slot. The generation number is the
// arbiter between a stop/replace and a timer that already fired: the firing
// goroutine re-acquires the room lock and only proceeds when its generation
// is still the one registered for the kind.
type countdownEntry struct {
	generation uint64
	endsAt     time.Time
	stop       chan struct{}
}

// StartCountdown arms (or replaces) the countdown of the given kind.
func (rc *roomContext) StartCountdown(scope *envelope.Scope, kind models.CountdownKind, duration time.Duration, onComplete match.CountdownCallback) {
	sr := rc.sr

	if existing, ok := sr.countdowns[kind]; ok {
		close(existing.stop)
	}

	sr.countdownGen++
	entry := &countdownEntry{
		generation: sr.countdownGen,
		endsAt:     time.Now().Add(duration),
		stop:       make(chan struct{}),
	}
	sr.countdowns[kind] = entry

	go rc.hub.runCountdown(sr.room.ID, kind, entry, duration, onComplete)

	rc.Broadcast(scope, models.NewEvent(models.EventCountdownStarted, models.CountdownInfo{
		Kind:   kind,
		EndsAt: entry.endsAt,
	}))
}

// StopCountdown cancels the pending countdown of the kind, if any.
func (rc *roomContext) StopCountdown(scope *envelope.Scope, kind models.CountdownKind) {
	sr := rc.sr

	entry, ok := sr.countdowns[kind]
	if !ok {
		return
	}

	close(entry.stop)
	delete(sr.countdowns, kind)

	rc.Broadcast(scope, models.NewEvent(models.EventCountdownStopped, kind))
}

// runCountdown waits out the timer off-lock, then re-enters the room through
// the store to run the callback with the usage lock held. A countdown whose
// generation no longer matches was stopped or replaced while the timer ran
// and must do nothing.
func (h *Hub) runCountdown(roomID int64, kind models.CountdownKind, entry *countdownEntry, duration time.Duration, onComplete match.CountdownCallback) {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-entry.stop:
		return
	case <-timer.C:
	}

	scope := envelope.NewRootScope(context.Background(), "countdown."+string(kind), "").WithRoom(roomID)
	defer scope.Finish()

	roomUsage, err := h.rooms.GetForUse(scope.Ctx, roomID, false)
	if err != nil {
		return
	}
	defer roomUsage.Release()

	sr := roomUsage.Item()
	if sr == nil || sr.closed {
		return
	}

	current, ok := sr.countdowns[kind]
	if !ok || current.generation != entry.generation {
		return
	}
	delete(sr.countdowns, kind)

	access := &roomContext{hub: h, sr: sr}
	if h.metrics != nil {
		h.metrics.CountdownFired(string(kind))
	}
	onComplete(scope, access)

	h.settleRoom(scope, roomUsage, sr)
}
