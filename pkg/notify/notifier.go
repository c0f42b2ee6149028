// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package notify delivers named events to the connection layer. Delivery is
// fire-and-forget from the core's perspective: no acknowledgment is awaited
// and failures never reach game logic.
package notify

import (
	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

type Notifier interface {
	// ToUser delivers an event to one user's connection.
	ToUser(scope *envelope.Scope, userID int64, event models.Event)

	// ToRoom delivers an event to every watcher of a room.
	ToRoom(scope *envelope.Scope, roomID int64, event models.Event)

	// ToAll delivers an event to every connection.
	ToAll(scope *envelope.Scope, event models.Event)
}
