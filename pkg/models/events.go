// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event names delivered through the notifier. The wire serialization of the
// payload is owned by the connection layer, not the core.
const (
	EventRoomStateChanged      = "room_state_changed"
	EventUserJoined            = "user_joined"
	EventUserLeft              = "user_left"
	EventHostChanged           = "host_changed"
	EventSettingsChanged       = "settings_changed"
	EventPlaylistItemAdded     = "playlist_item_added"
	EventPlaylistItemChanged   = "playlist_item_changed"
	EventPlaylistItemRemoved   = "playlist_item_removed"
	EventCurrentItemChanged    = "current_item_changed"
	EventCountdownStarted      = "countdown_started"
	EventCountdownStopped      = "countdown_stopped"
	EventMatchStarted          = "match_started"
	EventMatchAborted          = "match_aborted"
	EventMatchRoomStateChanged = "match_room_state_changed"
	EventUserDetailsChanged    = "user_details_changed"
	EventHandChanged           = "hand_changed"
	EventRoomClosed            = "room_closed"
)

// Event is one named notification, fire-and-forget from the core's
// perspective.
type Event struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Payload interface{} `json:"payload,omitempty"`
}

var (
	eventEntropyMu sync.Mutex
	eventEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) //nolint:gosec
)

func NewEvent(name string, payload interface{}) Event {
	eventEntropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), eventEntropy).String()
	eventEntropyMu.Unlock()

	return Event{
		ID:      id,
		Name:    name,
		Payload: payload,
	}
}
