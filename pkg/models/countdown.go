// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"math"
	"time"
)

// NoTimeout marks a countdown or stage duration with no automatic expiry.
const NoTimeout time.Duration = math.MaxInt64

// CountdownKind identifies a countdown slot on a room. Starting a new
// countdown of a kind replaces any pending one of the same kind.
type CountdownKind string

const (
	CountdownMatchStart CountdownKind = "match_start"
	CountdownStage      CountdownKind = "stage"
)

// CountdownInfo is the broadcastable view of an active countdown.
type CountdownInfo struct {
	Kind   CountdownKind `json:"kind"`
	EndsAt time.Time     `json:"ends_at"`
}
