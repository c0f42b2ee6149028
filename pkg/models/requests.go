// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

// MatchUserRequest is a match-specific user action forwarded to the active
// controller. Controllers reject kinds they do not understand.
type MatchUserRequest interface {
	RequestName() string
}

// DiscardCardsRequest throws away held cards during the discard stage.
type DiscardCardsRequest struct {
	CardIDs []int64 `json:"card_ids"`
}

func (DiscardCardsRequest) RequestName() string { return "discard_cards" }

// PlayCardRequest commits one held card as the user's pick for this round.
type PlayCardRequest struct {
	CardID int64 `json:"card_id"`
}

func (PlayCardRequest) RequestName() string { return "play_card" }

// GameplayResult is one user's outcome for a completed round of gameplay.
type GameplayResult struct {
	UserID     int64   `json:"user_id"`
	TotalScore int64   `json:"total_score"`
	Accuracy   float64 `json:"accuracy"`
	Passed     bool    `json:"passed"`
}
