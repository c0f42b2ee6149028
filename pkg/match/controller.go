// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package match provides the contract between a room and its match
// controller: the per-room strategy object implementing game-mode-specific
// lifecycle behaviour.
package match

import (
	"time"

	"github.com/ppy/osu-server-spectator-sub002/pkg/config"
	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
	"github.com/ppy/osu-server-spectator-sub002/pkg/persistence"
	"github.com/ppy/osu-server-spectator-sub002/pkg/ratings"
)

// CountdownCallback runs when a countdown expires naturally. It is invoked
// with the room's usage lock held.
type CountdownCallback func(scope *envelope.Scope, access RoomAccess)

/*
RoomAccess is what a controller may do to its room. Every method is only
legal while the room's usage lock is held, which is guaranteed for all
Controller entry points and countdown callbacks.

Broadcast and NotifyUser are fire-and-forget. UpdateQueueOrder re-runs the
queue scheduler and persists/broadcasts only positions that actually moved.
CloseRoom flags the room for destruction once the current operation releases
the lock; it does not tear anything down synchronously.
*/
type RoomAccess interface {
	Room() *models.Room
	Config() *config.Config
	Store() persistence.Store
	Ratings() ratings.Engine

	Broadcast(scope *envelope.Scope, event models.Event)
	NotifyUser(scope *envelope.Scope, userID int64, event models.Event)

	// StartCountdown replaces any pending countdown of the same kind; the
	// replaced countdown's callback never fires. Callers wanting "no timeout"
	// simply do not start one.
	StartCountdown(scope *envelope.Scope, kind models.CountdownKind, duration time.Duration, onComplete CountdownCallback)

	// StopCountdown cancels a pending countdown of the kind. A countdown that
	// already fired is a no-op; the room lock arbitrates the race.
	StopCountdown(scope *envelope.Scope, kind models.CountdownKind)

	UpdateQueueOrder(scope *envelope.Scope) error
	SetCurrentItem(scope *envelope.Scope, itemID int64) error

	// ExpireCurrentItem marks the current item played (idempotent in storage)
	// and advances the queue.
	ExpireCurrentItem(scope *envelope.Scope) error

	BeginGameplay(scope *envelope.Scope)
	EndGameplay(scope *envelope.Scope)
	CloseRoom(scope *envelope.Scope)
}

/*
Controller is the polymorphic match strategy, one instance per room for its
whole open lifetime. All methods are invoked while the caller holds the
room's usage lock.

Recoverable trouble (acting out of turn, referencing a card not held, an
unsupported ruleset…) is reported as a models.RejectedError and leaves room
state untouched; only invariant violations may surface as opaque errors.
*/
type Controller interface {
	// Initialise is called once when the controller is attached to the room,
	// either on first join or after a settings change swapped the match type.
	Initialise(scope *envelope.Scope) error

	// UserCanJoin returns nil when the user may join, or a rejection.
	UserCanJoin(userID int64) error

	HandleUserJoined(scope *envelope.Scope, user *models.RoomUser) error
	HandleUserLeft(scope *envelope.Scope, user *models.RoomUser) error
	HandleSettingsChanged(scope *envelope.Scope) error

	// HandleGameplayCompleted receives the per-user results of the finished
	// round. Controllers owning their own lifecycle end gameplay and expire
	// the item themselves; for the rest the hub does both afterwards.
	HandleGameplayCompleted(scope *envelope.Scope, results []models.GameplayResult) error

	HandleUserRequest(scope *envelope.Scope, user *models.RoomUser, request models.MatchUserRequest) error

	ItemAdded(scope *envelope.Scope, item *models.PlaylistItem) error
	ItemEdited(scope *envelope.Scope, item *models.PlaylistItem) error
	ItemRemoved(scope *envelope.Scope, item *models.PlaylistItem) error

	// MatchDetails returns the controller's broadcastable room-wide state, or
	// nil when the mode has none.
	MatchDetails() interface{}
}
