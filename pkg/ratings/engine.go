// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package ratings computes skill-rating updates for finished ranked rooms.
package ratings

import (
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

// PlayerResult pairs a user's prior rating with their final placement in a
// room (1 = winner; equal placements mean a draw).
type PlayerResult struct {
	Stats     models.UserStats
	Placement int
}

// Engine turns prior ratings plus placements into updated ratings. Invoked
// once per room when it reaches its end of life.
type Engine interface {
	Update(results []PlayerResult) []models.UserStats
}
