// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"sync"

	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

// SentEvent is one recorded delivery. UserID is zero for room and broadcast
// deliveries; RoomID is zero for direct user deliveries.
type SentEvent struct {
	UserID int64
	RoomID int64
	Event  models.Event
}

// RecorderNotifier collects everything the code under test would have sent.
type RecorderNotifier struct {
	mu     sync.Mutex
	Events []SentEvent
}

func NewRecorderNotifier() *RecorderNotifier {
	return &RecorderNotifier{}
}

func (r *RecorderNotifier) ToUser(scope *envelope.Scope, userID int64, event models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, SentEvent{UserID: userID, Event: event})
}

func (r *RecorderNotifier) ToRoom(scope *envelope.Scope, roomID int64, event models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, SentEvent{RoomID: roomID, Event: event})
}

func (r *RecorderNotifier) ToAll(scope *envelope.Scope, event models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, SentEvent{Event: event})
}

// Named returns the recorded deliveries carrying the given event name.
func (r *RecorderNotifier) Named(name string) []SentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []SentEvent
	for _, sent := range r.Events {
		if sent.Event.Name == name {
			matched = append(matched, sent)
		}
	}

	return matched
}
