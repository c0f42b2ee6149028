// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package rooms hosts the hub: the exposed per-room operations of the server.
// Every operation acquires the usage lock of the target user and/or room,
// mutates the session handle, delegates mode-specific behaviour to the match
// controller and releases the lock. Operations on the same key are strictly
// serialized; unrelated rooms and users proceed fully in parallel.
//
// Lock order is always user before room; nothing acquires a user lock while
// holding a room lock.
package rooms

import (
	"errors"
	"math/rand"
	"time"

	"github.com/mitchellh/copystructure"

	"github.com/ppy/osu-server-spectator-sub002/pkg/common"
	"github.com/ppy/osu-server-spectator-sub002/pkg/config"
	"github.com/ppy/osu-server-spectator-sub002/pkg/constants"
	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/interop"
	"github.com/ppy/osu-server-spectator-sub002/pkg/match"
	"github.com/ppy/osu-server-spectator-sub002/pkg/match/rankedplay"
	"github.com/ppy/osu-server-spectator-sub002/pkg/metrics"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
	"github.com/ppy/osu-server-spectator-sub002/pkg/notify"
	"github.com/ppy/osu-server-spectator-sub002/pkg/persistence"
	"github.com/ppy/osu-server-spectator-sub002/pkg/ratings"
	"github.com/ppy/osu-server-spectator-sub002/pkg/tracking"
)

// serverRoom is the payload tracked by the rooms entity store.
type serverRoom struct {
	room       *models.Room
	controller match.Controller

	countdowns   map[models.CountdownKind]*countdownEntry
	countdownGen uint64

	// closeRequested defers room teardown to the end of the operation that
	// asked for it, so the requesting code path keeps a valid lease.
	closeRequested bool
	closed         bool
}

// Hub owns the entity stores and the collaborator handles.
type Hub struct {
	cfg      *config.Config
	rooms    *tracking.EntityStore[serverRoom]
	users    *tracking.EntityStore[models.UserSession]
	store    persistence.Store
	notifier notify.Notifier
	ratings  ratings.Engine
	interop  interop.Membership
	metrics  metrics.RoomServerMetrics

	// rngSource seeds ranked-play decks; tests inject a fixed source.
	rngSource func() rand.Source
}

func NewHub(
	cfg *config.Config,
	store persistence.Store,
	notifier notify.Notifier,
	ratingEngine ratings.Engine,
	membership interop.Membership,
	collection metrics.RoomServerMetrics,
) *Hub {
	return &Hub{
		cfg:       cfg,
		rooms:     tracking.NewEntityStore[serverRoom](constants.RoomsStoreName, cfg.LockTimeout(), cfg.LockAttemptLimit, collection),
		users:     tracking.NewEntityStore[models.UserSession](constants.UsersStoreName, cfg.LockTimeout(), cfg.LockAttemptLimit, collection),
		store:     store,
		notifier:  notifier,
		ratings:   ratingEngine,
		interop:   membership,
		metrics:   collection,
		rngSource: func() rand.Source { return rand.NewSource(time.Now().UnixNano()) },
	}
}

// JoinRoom attaches a user to a room, tracking the room on first join.
func (h *Hub) JoinRoom(rootScope *envelope.Scope, roomID int64, userID int64, password string) error {
	scope := rootScope.NewChildScope("hub.JoinRoom").WithRoom(roomID).WithUser(userID)
	defer scope.Finish()

	userUsage, err := h.users.GetForUse(scope.Ctx, userID, true)
	if err != nil {
		return h.operationFailed(scope, constants.JoinRoomOperation, err)
	}
	defer userUsage.Release()

	session := userUsage.Item()
	if session == nil {
		session = &models.UserSession{UserID: userID}
		userUsage.SetItem(session)
	}
	if session.CurrentRoomID != nil {
		return h.operationFailed(scope, constants.JoinRoomOperation, models.Reject(constants.RejectReasonAlreadyInRoom))
	}

	roomUsage, err := h.rooms.GetForUse(scope.Ctx, roomID, true)
	if err != nil {
		return h.operationFailed(scope, constants.JoinRoomOperation, err)
	}
	defer roomUsage.Release()

	sr := roomUsage.Item()
	fresh := false
	if sr == nil {
		sr, err = h.trackRoom(scope, roomID)
		if err != nil {
			roomUsage.Destroy()
			return h.operationFailed(scope, constants.JoinRoomOperation, err)
		}
		roomUsage.SetItem(sr)
		fresh = true
	}
	defer h.settleRoom(scope, roomUsage, sr)

	// A room tracked only for this join must not linger empty when the join
	// falls through; it is untracked again without being ended in storage.
	rejectJoin := func(err error) error {
		if fresh && len(sr.room.Users) == 0 {
			roomUsage.Destroy()
		}
		return h.operationFailed(scope, constants.JoinRoomOperation, err)
	}

	room := sr.room
	if room.State == models.RoomStateClosed || sr.closeRequested {
		return rejectJoin(models.Reject(constants.RejectReasonRoomClosed))
	}
	if room.Settings.Password != "" && room.Settings.Password != password {
		return rejectJoin(models.Reject(constants.RejectReasonWrongPassword))
	}
	if err := sr.controller.UserCanJoin(userID); err != nil {
		return rejectJoin(err)
	}

	if err := h.interop.AddUser(scope.Ctx, roomID, userID); err != nil {
		return rejectJoin(err)
	}

	user := &models.RoomUser{UserID: userID, Status: models.UserStatusIdle}
	room.Users = append(room.Users, user)

	if err := sr.controller.HandleUserJoined(scope, user); err != nil {
		room.RemoveUser(userID)
		if rerr := h.interop.RemoveUser(scope.Ctx, roomID, userID); rerr != nil {
			scope.Log.WithError(rerr).Warn("failed to part user from membership service")
		}
		return rejectJoin(err)
	}

	session.CurrentRoomID = &roomID
	h.refreshParticipantCount(scope, room)

	h.notifier.ToRoom(scope, roomID, models.NewEvent(models.EventUserJoined, user))
	scope.Log.Info("user joined room")

	return nil
}

// LeaveRoom detaches a user from their current room, destroying the room when
// the roster empties.
func (h *Hub) LeaveRoom(rootScope *envelope.Scope, userID int64) error {
	scope := rootScope.NewChildScope("hub.LeaveRoom").WithUser(userID)
	defer scope.Finish()

	userUsage, err := h.users.GetForUse(scope.Ctx, userID, false)
	if err != nil {
		if errors.Is(err, tracking.ErrNotFound) {
			return h.operationFailed(scope, constants.LeaveRoomOperation, models.Reject(constants.RejectReasonNotInRoom))
		}
		return h.operationFailed(scope, constants.LeaveRoomOperation, err)
	}
	defer userUsage.Release()

	session := userUsage.Item()
	if session == nil || session.CurrentRoomID == nil {
		return h.operationFailed(scope, constants.LeaveRoomOperation, models.Reject(constants.RejectReasonNotInRoom))
	}

	roomID := *session.CurrentRoomID
	scope = scope.WithRoom(roomID)

	roomUsage, err := h.rooms.GetForUse(scope.Ctx, roomID, false)
	if err != nil {
		// The room may already have been torn down.
		if errors.Is(err, tracking.ErrNotFound) {
			session.CurrentRoomID = nil
			return nil
		}
		// The session keeps its room so a lock timeout stays retryable.
		return h.operationFailed(scope, constants.LeaveRoomOperation, err)
	}
	defer roomUsage.Release()

	sr := roomUsage.Item()
	if sr == nil {
		session.CurrentRoomID = nil
		return nil
	}
	defer h.settleRoom(scope, roomUsage, sr)

	session.CurrentRoomID = nil

	room := sr.room
	user := room.RemoveUser(userID)
	if user == nil {
		return nil
	}

	if err := sr.controller.HandleUserLeft(scope, user); err != nil {
		scope.Log.WithError(err).Error("controller rejected user departure")
	}

	if err := h.interop.RemoveUser(scope.Ctx, roomID, userID); err != nil {
		scope.Log.WithError(err).Warn("failed to part user from membership service")
	}

	if room.HostID == userID && len(room.Users) > 0 {
		room.HostID = room.Users[0].UserID
		h.notifier.ToRoom(scope, roomID, models.NewEvent(models.EventHostChanged, room.HostID))
	}

	h.refreshParticipantCount(scope, room)
	h.notifier.ToRoom(scope, roomID, models.NewEvent(models.EventUserLeft, userID))
	scope.Log.Info("user left room")

	if len(room.Users) == 0 {
		sr.closeRequested = true
	}

	return nil
}

// ChangeSettings applies new room settings, swapping the match controller
// when the match type changes.
func (h *Hub) ChangeSettings(rootScope *envelope.Scope, roomID int64, userID int64, settings models.RoomSettings) error {
	scope := rootScope.NewChildScope("hub.ChangeSettings").WithRoom(roomID).WithUser(userID)
	defer scope.Finish()

	roomUsage, sr, err := h.roomForUser(scope, roomID, userID)
	if err != nil {
		return h.operationFailed(scope, constants.ChangeSettingsOperation, err)
	}
	defer roomUsage.Release()
	defer h.settleRoom(scope, roomUsage, sr)

	room := sr.room
	if !room.IsHost(userID) {
		return h.operationFailed(scope, constants.ChangeSettingsOperation, models.Reject(constants.RejectReasonNotHost))
	}
	if room.State != models.RoomStateOpen {
		return h.operationFailed(scope, constants.ChangeSettingsOperation, models.Reject(constants.RejectReasonMatchInProgress))
	}

	previous := room.Settings
	room.Settings = settings

	if err := h.store.UpdateRoomSettings(scope.Ctx, roomID, settings); err != nil {
		room.Settings = previous
		return h.operationFailed(scope, constants.ChangeSettingsOperation, err)
	}

	access := &roomContext{hub: h, sr: sr}

	if previous.MatchType != settings.MatchType {
		// The old controller's countdowns must not fire into the new one.
		for kind := range sr.countdowns {
			access.StopCountdown(scope, kind)
		}
		sr.controller = h.newController(sr)
		if err := sr.controller.Initialise(scope); err != nil {
			return h.operationFailed(scope, constants.ChangeSettingsOperation, err)
		}
	}

	if previous.QueueMode != settings.QueueMode {
		if err := access.UpdateQueueOrder(scope); err != nil {
			return h.operationFailed(scope, constants.ChangeSettingsOperation, err)
		}
	}

	if err := sr.controller.HandleSettingsChanged(scope); err != nil {
		return h.operationFailed(scope, constants.ChangeSettingsOperation, err)
	}

	h.notifier.ToRoom(scope, roomID, models.NewEvent(models.EventSettingsChanged, settings))
	scope.Log.Infof("room settings changed: %s", common.LogJSONFormatter(settings))

	return nil
}

// StartMatch begins gameplay on the room's current item. Host only.
func (h *Hub) StartMatch(rootScope *envelope.Scope, roomID int64, userID int64) error {
	scope := rootScope.NewChildScope("hub.StartMatch").WithRoom(roomID).WithUser(userID)
	defer scope.Finish()

	roomUsage, sr, err := h.roomForUser(scope, roomID, userID)
	if err != nil {
		return h.operationFailed(scope, constants.StartMatchOperation, err)
	}
	defer roomUsage.Release()
	defer h.settleRoom(scope, roomUsage, sr)

	if !sr.room.IsHost(userID) {
		return h.operationFailed(scope, constants.StartMatchOperation, models.Reject(constants.RejectReasonNotHost))
	}

	access := &roomContext{hub: h, sr: sr}
	if err := h.startMatchLocked(scope, access); err != nil {
		return h.operationFailed(scope, constants.StartMatchOperation, err)
	}

	return nil
}

// startMatchLocked is shared by StartMatch and the match-start countdown.
func (h *Hub) startMatchLocked(scope *envelope.Scope, access *roomContext) error {
	room := access.sr.room
	if room.State != models.RoomStateOpen {
		return models.Reject(constants.RejectReasonMatchInProgress)
	}

	current := room.CurrentItem()
	if current == nil || current.Expired {
		return models.Reject(constants.RejectReasonNoCurrentItem)
	}

	access.StopCountdown(scope, models.CountdownMatchStart)
	access.BeginGameplay(scope)

	return nil
}

// StartMatchCountdown arms an automatic match start. Host only.
func (h *Hub) StartMatchCountdown(rootScope *envelope.Scope, roomID int64, userID int64, duration time.Duration) error {
	scope := rootScope.NewChildScope("hub.StartMatchCountdown").WithRoom(roomID).WithUser(userID)
	defer scope.Finish()

	roomUsage, sr, err := h.roomForUser(scope, roomID, userID)
	if err != nil {
		return h.operationFailed(scope, constants.StartCountdownOperation, err)
	}
	defer roomUsage.Release()
	defer h.settleRoom(scope, roomUsage, sr)

	if !sr.room.IsHost(userID) {
		return h.operationFailed(scope, constants.StartCountdownOperation, models.Reject(constants.RejectReasonNotHost))
	}
	if sr.room.State != models.RoomStateOpen {
		return h.operationFailed(scope, constants.StartCountdownOperation, models.Reject(constants.RejectReasonMatchInProgress))
	}

	access := &roomContext{hub: h, sr: sr}
	access.StartCountdown(scope, models.CountdownMatchStart, duration, func(scope *envelope.Scope, a match.RoomAccess) {
		if err := h.startMatchLocked(scope, a.(*roomContext)); err != nil {
			scope.Log.WithError(err).Warn("match start countdown could not start the match")
		}
	})

	return nil
}

// StopMatchCountdown cancels a pending automatic match start. Host only.
func (h *Hub) StopMatchCountdown(rootScope *envelope.Scope, roomID int64, userID int64) error {
	scope := rootScope.NewChildScope("hub.StopMatchCountdown").WithRoom(roomID).WithUser(userID)
	defer scope.Finish()

	roomUsage, sr, err := h.roomForUser(scope, roomID, userID)
	if err != nil {
		return h.operationFailed(scope, constants.StopCountdownOperation, err)
	}
	defer roomUsage.Release()
	defer h.settleRoom(scope, roomUsage, sr)

	if !sr.room.IsHost(userID) {
		return h.operationFailed(scope, constants.StopCountdownOperation, models.Reject(constants.RejectReasonNotHost))
	}

	access := &roomContext{hub: h, sr: sr}
	access.StopCountdown(scope, models.CountdownMatchStart)

	return nil
}

// AbortMatch ends gameplay without scoring. Host only.
func (h *Hub) AbortMatch(rootScope *envelope.Scope, roomID int64, userID int64) error {
	scope := rootScope.NewChildScope("hub.AbortMatch").WithRoom(roomID).WithUser(userID)
	defer scope.Finish()

	roomUsage, sr, err := h.roomForUser(scope, roomID, userID)
	if err != nil {
		return h.operationFailed(scope, constants.AbortMatchOperation, err)
	}
	defer roomUsage.Release()
	defer h.settleRoom(scope, roomUsage, sr)

	if !sr.room.IsHost(userID) {
		return h.operationFailed(scope, constants.AbortMatchOperation, models.Reject(constants.RejectReasonNotHost))
	}
	if sr.room.State != models.RoomStatePlaying {
		return h.operationFailed(scope, constants.AbortMatchOperation, models.Reject(constants.RejectReasonMatchNotInProgress))
	}

	access := &roomContext{hub: h, sr: sr}
	access.EndGameplay(scope)
	h.notifier.ToRoom(scope, roomID, models.NewEvent(models.EventMatchAborted, nil))

	return nil
}

// GameplayCompleted reports the end of a round with its per-user results.
func (h *Hub) GameplayCompleted(rootScope *envelope.Scope, roomID int64, results []models.GameplayResult) error {
	scope := rootScope.NewChildScope("hub.GameplayCompleted").WithRoom(roomID)
	defer scope.Finish()

	roomUsage, err := h.rooms.GetForUse(scope.Ctx, roomID, false)
	if err != nil {
		return h.operationFailed(scope, constants.GameplayOperation, h.mapStoreError(err))
	}
	defer roomUsage.Release()

	sr := roomUsage.Item()
	if sr == nil {
		return h.operationFailed(scope, constants.GameplayOperation, models.Reject(constants.RejectReasonRoomNotFound))
	}
	defer h.settleRoom(scope, roomUsage, sr)

	if sr.room.State != models.RoomStatePlaying {
		return h.operationFailed(scope, constants.GameplayOperation, models.Reject(constants.RejectReasonMatchNotInProgress))
	}

	if err := sr.controller.HandleGameplayCompleted(scope, results); err != nil {
		return h.operationFailed(scope, constants.GameplayOperation, err)
	}

	// Controllers driving their own lifecycle (ranked play) have already
	// ended gameplay and expired the item by now; finish up for those that
	// have not.
	if sr.room.State == models.RoomStatePlaying {
		access := &roomContext{hub: h, sr: sr}
		access.EndGameplay(scope)
		if err := access.ExpireCurrentItem(scope); err != nil {
			scope.Log.WithError(err).Error("failed to expire played item")
		}
	}

	return nil
}

// SendUserRequest forwards a match-specific action to the room's controller.
func (h *Hub) SendUserRequest(rootScope *envelope.Scope, roomID int64, userID int64, request models.MatchUserRequest) error {
	scope := rootScope.NewChildScope("hub.SendUserRequest").WithRoom(roomID).WithUser(userID)
	defer scope.Finish()

	roomUsage, sr, err := h.roomForUser(scope, roomID, userID)
	if err != nil {
		return h.operationFailed(scope, constants.UserRequestOperation, err)
	}
	defer roomUsage.Release()
	defer h.settleRoom(scope, roomUsage, sr)

	user := sr.room.FindUser(userID)
	if err := sr.controller.HandleUserRequest(scope, user, request); err != nil {
		return h.operationFailed(scope, constants.UserRequestOperation, err)
	}

	return nil
}

// RoomSnapshotUnsafe deep-copies a room for diagnostics without taking its
// lock. The result is immediately stale; the opaque match state is replaced
// by the controller's public details.
func (h *Hub) RoomSnapshotUnsafe(roomID int64) (*models.Room, bool) {
	sr, ok := h.rooms.GetEntityUnsafe(roomID)
	if !ok || sr == nil {
		return nil, false
	}

	shallow := *sr.room
	shallow.MatchState = sr.controller.MatchDetails()

	copied, err := copystructure.Copy(&shallow)
	if err != nil {
		return nil, false
	}

	return copied.(*models.Room), true
}

// RoomIDsUnsafe lists the currently tracked room keys.
func (h *Hub) RoomIDsUnsafe() []int64 {
	all := h.rooms.GetAllEntities()
	ids := make([]int64, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown stops accepting new entities and closes every tracked room.
func (h *Hub) Shutdown(rootScope *envelope.Scope) {
	scope := rootScope.NewChildScope("hub.Shutdown")
	defer scope.Finish()

	h.rooms.StopAcceptingEntities()
	h.users.StopAcceptingEntities()

	for _, roomID := range h.RoomIDsUnsafe() {
		roomUsage, err := h.rooms.GetForUse(scope.Ctx, roomID, false)
		if err != nil {
			continue
		}

		if sr := roomUsage.Item(); sr != nil {
			sr.closeRequested = true
			h.settleRoom(scope.WithRoom(roomID), roomUsage, sr)
		}
		roomUsage.Release()
	}

	scope.Log.Info("hub shut down")
}

// trackRoom loads the room from storage and attaches a controller. Called
// with the freshly created entity's lock held.
func (h *Hub) trackRoom(scope *envelope.Scope, roomID int64) (*serverRoom, error) {
	room, err := h.store.FetchRoom(scope.Ctx, roomID)
	if err != nil {
		if errors.Is(err, persistence.ErrRoomNotFound) {
			return nil, models.Reject(constants.RejectReasonRoomNotFound)
		}
		return nil, err
	}

	if err := h.interop.CreateRoom(scope.Ctx, roomID, room.HostID); err != nil {
		return nil, err
	}

	sr := &serverRoom{
		room:       room,
		countdowns: make(map[models.CountdownKind]*countdownEntry),
	}
	sr.controller = h.newController(sr)

	if err := sr.controller.Initialise(scope); err != nil {
		return nil, err
	}

	access := &roomContext{hub: h, sr: sr}
	if err := access.UpdateQueueOrder(scope); err != nil {
		return nil, err
	}

	scope.Log.Info("room is now tracked")
	return sr, nil
}

func (h *Hub) newController(sr *serverRoom) match.Controller {
	access := &roomContext{hub: h, sr: sr}

	switch sr.room.Settings.MatchType {
	case models.MatchTypeTeamVersus:
		return match.NewTeamVersus(access)
	case models.MatchTypeRankedPlay:
		return rankedplay.New(access, h.rngSource())
	default:
		return match.NewHeadToHead(access)
	}
}

// roomForUse fetches a tracked room and verifies the calling user is a
// participant.
func (h *Hub) roomForUser(scope *envelope.Scope, roomID int64, userID int64) (*tracking.Usage[serverRoom], *serverRoom, error) {
	roomUsage, err := h.rooms.GetForUse(scope.Ctx, roomID, false)
	if err != nil {
		return nil, nil, h.mapStoreError(err)
	}

	sr := roomUsage.Item()
	if sr == nil {
		roomUsage.Release()
		return nil, nil, models.Reject(constants.RejectReasonRoomNotFound)
	}

	if sr.room.FindUser(userID) == nil {
		roomUsage.Release()
		return nil, nil, models.Reject(constants.RejectReasonNotJoined)
	}

	return roomUsage, sr, nil
}

// mapStoreError converts an untracked-entity miss into a caller rejection;
// everything else passes through untouched.
func (h *Hub) mapStoreError(err error) error {
	if errors.Is(err, tracking.ErrNotFound) {
		return models.Reject(constants.RejectReasonRoomNotFound)
	}
	return err
}

// settleRoom runs deferred teardown when an operation flagged the room for
// closing. It must run before the usage lease is released.
func (h *Hub) settleRoom(scope *envelope.Scope, usage *tracking.Usage[serverRoom], sr *serverRoom) {
	if !sr.closeRequested || sr.closed {
		return
	}
	sr.closed = true

	access := &roomContext{hub: h, sr: sr}
	for kind := range sr.countdowns {
		access.StopCountdown(scope, kind)
	}

	now := time.Now()
	sr.room.State = models.RoomStateClosed
	sr.room.EndsAt = &now

	if err := h.store.MarkRoomEnded(scope.Ctx, sr.room.ID, now); err != nil {
		scope.Log.WithError(err).Error("failed to mark room ended")
	}

	h.notifier.ToRoom(scope, sr.room.ID, models.NewEvent(models.EventRoomClosed, nil))
	if h.metrics != nil {
		h.metrics.RoomEnded()
	}
	scope.Log.Info("room closed")

	usage.Destroy()
}

// refreshParticipantCount is best-effort bookkeeping: failures are logged and
// swallowed, never raised to the caller.
func (h *Hub) refreshParticipantCount(scope *envelope.Scope, room *models.Room) {
	room.ParticipantCount = len(room.Users)
	if err := h.store.UpdateParticipantCount(scope.Ctx, room.ID, room.ParticipantCount, room.HostID); err != nil {
		scope.Log.WithError(err).Warn("failed to update participant count")
	}
}

// operationFailed records rejection metrics and returns the error unchanged.
func (h *Hub) operationFailed(scope *envelope.Scope, operation string, err error) error {
	if reason, ok := models.RejectionReason(err); ok {
		if h.metrics != nil {
			h.metrics.RequestRejected(operation, reason)
		}
		scope.Log.WithField("reason", reason).WithField("code", models.RejectionCode(reason)).Info("request rejected")
		return err
	}

	scope.Log.WithError(err).Error("operation failed")
	return err
}
