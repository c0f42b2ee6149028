// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

// UserStats is one user's rating row for a given pool.
type UserStats struct {
	UserID       int64   `json:"user_id"`
	PoolID       int64   `json:"pool_id"`
	RatingMu     float64 `json:"rating_mu"`
	RatingSigma  float64 `json:"rating_sigma"`
	ContestCount int     `json:"contest_count"`
}

// MatchResultRow is one persisted per-user outcome of a finished ranked room.
// Insertion is idempotent on (room, user).
type MatchResultRow struct {
	RoomID      int64   `json:"room_id"`
	UserID      int64   `json:"user_id"`
	Placement   int     `json:"placement"`
	FinalHealth int     `json:"final_health"`
	RatingMu    float64 `json:"rating_mu"`
	RatingSigma float64 `json:"rating_sigma"`
}
