// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package rankedplay implements the tournament match controller: a stage
// machine layered over the room lifecycle plus a card-drafting mini-game in
// which every card is bound to one playlist item and lost rounds drain a
// player's health.
package rankedplay

import (
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

// Stage is a named phase of the ranked-play lifecycle.
type Stage string

const (
	StageWaitForJoin Stage = "wait_for_join"
	StageRoundWarmup Stage = "round_warmup"
	StageDiscard     Stage = "discard"
	StagePlay        Stage = "play"
	StageFinish      Stage = "finish"
	StageWarmup      Stage = "warmup"
	StageGameplay    Stage = "gameplay"
	StageResults     Stage = "results"
	StageEnded       Stage = "ended"
)

// Card binds one playlist item into the draft deck.
type Card struct {
	ID     int64 `json:"id"`
	ItemID int64 `json:"item_id"`
}

// playerState is one participant's private game state. Health reaching zero
// eliminates the player; an eliminated player never deals or takes damage.
type playerState struct {
	UserID    int64
	Health    int
	Hand      []Card
	Discarded bool
	Played    *Card
}

func (p *playerState) holds(cardID int64) (int, bool) {
	for i, card := range p.Hand {
		if card.ID == cardID {
			return i, true
		}
	}
	return -1, false
}

func (p *playerState) removeCard(index int) Card {
	card := p.Hand[index]
	p.Hand = append(p.Hand[:index], p.Hand[index+1:]...)
	return card
}

// roomState is the controller-owned match state payload stored on the room.
// It is only touched under the room's usage lock.
type roomState struct {
	Stage Stage
	Round int

	Deck    []Card
	Players map[int64]*playerState

	// Eliminated records user IDs in the order their health reached zero.
	Eliminated []int64

	// LastResults carries the most recent gameplay outcome into the results
	// stage.
	LastResults []models.GameplayResult

	nextCardID int64
}

func (s *roomState) player(userID int64) *playerState {
	return s.Players[userID]
}

func (s *roomState) alivePlayers() []*playerState {
	alive := make([]*playerState, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Health > 0 {
			alive = append(alive, p)
		}
	}
	return alive
}

func (s *roomState) cardsRemain() bool {
	if len(s.Deck) > 0 {
		return true
	}
	for _, p := range s.Players {
		if p.Health > 0 && len(p.Hand) > 0 {
			return true
		}
	}
	return false
}

// PlayerView is the public per-player state broadcast to the room. Hand
// contents stay private; only the count is visible.
type PlayerView struct {
	UserID    int64 `json:"user_id"`
	Health    int   `json:"health"`
	HandSize  int   `json:"hand_size"`
	Discarded bool  `json:"discarded"`
	Played    bool  `json:"played"`
}

// PublicState is the broadcastable room-wide ranked-play state.
type PublicState struct {
	Stage   Stage        `json:"stage"`
	Round   int          `json:"round"`
	DeckLen int          `json:"deck_len"`
	Players []PlayerView `json:"players"`
}

// HandView is delivered to a single user whenever their hand changes.
type HandView struct {
	Cards []Card `json:"cards"`
}
