// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rankedplay

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/elliotchance/pie/v2"

	"github.com/ppy/osu-server-spectator-sub002/pkg/constants"
	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/match"
	"github.com/ppy/osu-server-spectator-sub002/pkg/mathutil"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

// RankedPlay drives a tournament room through the stage machine. One instance
// exists per room; every entry point runs under the room's usage lock.
type RankedPlay struct {
	access match.RoomAccess
	rng    *rand.Rand
}

// New returns the ranked-play controller. A nil source seeds from the clock.
func New(access match.RoomAccess, source rand.Source) match.Controller {
	if source == nil {
		source = rand.NewSource(time.Now().UnixNano())
	}

	return &RankedPlay{
		access: access,
		rng:    rand.New(source), //nolint:gosec
	}
}

func (c *RankedPlay) state() *roomState {
	s, _ := c.access.Room().MatchState.(*roomState)
	return s
}

// Initialise builds the deck from the room's unplayed playlist and enters the
// initial stage.
func (c *RankedPlay) Initialise(scope *envelope.Scope) error {
	room := c.access.Room()

	s := &roomState{
		Players: make(map[int64]*playerState),
	}

	for _, item := range room.ActiveItems() {
		s.nextCardID++
		s.Deck = append(s.Deck, Card{ID: s.nextCardID, ItemID: item.ID})
	}
	s.Deck = pie.Shuffle(s.Deck, c.rng)

	room.MatchState = s

	for _, user := range room.Users {
		c.addPlayer(scope, user)
	}

	if err := c.enter(scope, stageFor(StageWaitForJoin)); err != nil {
		return err
	}

	// A roster already at size (controller swapped onto a populated room)
	// must not sit in the waiting stage with nothing left to join.
	if len(room.Users) >= constants.RankedPlayRequiredUsers {
		c.shortCircuit(scope, false)
	}

	return nil
}

func (c *RankedPlay) UserCanJoin(userID int64) error {
	s := c.state()
	if s == nil {
		return nil
	}

	if s.Stage != StageWaitForJoin {
		return models.Reject(constants.RejectReasonMatchInProgress)
	}
	if len(c.access.Room().Users) >= constants.RankedPlayRequiredUsers {
		return models.Reject(constants.RejectReasonRoomFull)
	}

	return nil
}

func (c *RankedPlay) HandleUserJoined(scope *envelope.Scope, user *models.RoomUser) error {
	s := c.state()
	c.addPlayer(scope, user)
	c.broadcastState(scope)

	// Enough participants ends the waiting stage immediately.
	if s.Stage == StageWaitForJoin && len(c.access.Room().Users) >= constants.RankedPlayRequiredUsers {
		c.shortCircuit(scope, false)
	}

	return nil
}

// HandleUserLeft zeroes the leaver's health. Outside gameplay and results the
// room goes straight to the end of its life; a round in progress or about to
// score is never aborted.
func (c *RankedPlay) HandleUserLeft(scope *envelope.Scope, user *models.RoomUser) error {
	s := c.state()
	if s == nil || s.Stage == StageEnded {
		return nil
	}

	if p := s.player(user.UserID); p != nil && p.Health > 0 {
		p.Health = 0
		s.Eliminated = append(s.Eliminated, p.UserID)
	}
	c.broadcastState(scope)

	if s.Stage == StageGameplay || s.Stage == StageResults {
		return nil
	}

	c.access.StopCountdown(scope, models.CountdownStage)
	return c.enter(scope, stageFor(StageEnded))
}

func (c *RankedPlay) HandleSettingsChanged(scope *envelope.Scope) error {
	return nil
}

func (c *RankedPlay) HandleGameplayCompleted(scope *envelope.Scope, results []models.GameplayResult) error {
	s := c.state()
	if s == nil || s.Stage != StageGameplay {
		return nil
	}

	s.LastResults = results
	c.shortCircuit(scope, false)
	return nil
}

func (c *RankedPlay) HandleUserRequest(scope *envelope.Scope, user *models.RoomUser, request models.MatchUserRequest) error {
	switch req := request.(type) {
	case models.DiscardCardsRequest:
		return c.discardCards(scope, user, req.CardIDs)
	case *models.DiscardCardsRequest:
		return c.discardCards(scope, user, req.CardIDs)
	case models.PlayCardRequest:
		return c.playCard(scope, user, req.CardID)
	case *models.PlayCardRequest:
		return c.playCard(scope, user, req.CardID)
	default:
		return models.Reject(constants.RejectReasonUnknownRequest)
	}
}

// ItemAdded slips a card for the new item into the undealt deck at a random
// position.
func (c *RankedPlay) ItemAdded(scope *envelope.Scope, item *models.PlaylistItem) error {
	if item.RulesetID != 0 {
		return models.Reject(constants.RejectReasonUnsupportedRuleset)
	}

	s := c.state()
	if s == nil {
		return nil
	}

	s.nextCardID++
	card := Card{ID: s.nextCardID, ItemID: item.ID}
	at := 0
	if len(s.Deck) > 0 {
		at = c.rng.Intn(len(s.Deck) + 1)
	}
	s.Deck = append(s.Deck[:at], append([]Card{card}, s.Deck[at:]...)...)

	c.broadcastState(scope)
	return nil
}

func (c *RankedPlay) ItemEdited(scope *envelope.Scope, item *models.PlaylistItem) error {
	if item.RulesetID != 0 {
		return models.Reject(constants.RejectReasonUnsupportedRuleset)
	}
	return nil
}

// ItemRemoved drops the undealt card bound to the item. Cards already dealt
// stay in hands; their item is gone so they simply never win a round.
func (c *RankedPlay) ItemRemoved(scope *envelope.Scope, item *models.PlaylistItem) error {
	s := c.state()
	if s == nil {
		return nil
	}

	s.Deck = pie.Filter(s.Deck, func(card Card) bool {
		return card.ItemID != item.ID
	})

	c.broadcastState(scope)
	return nil
}

func (c *RankedPlay) MatchDetails() interface{} {
	return c.publicState()
}

func (c *RankedPlay) discardCards(scope *envelope.Scope, user *models.RoomUser, cardIDs []int64) error {
	s := c.state()
	if s == nil || s.Stage != StageDiscard {
		return models.Reject(constants.RejectReasonWrongStage)
	}

	p := s.player(user.UserID)
	if p == nil || p.Health <= 0 {
		return models.Reject(constants.RejectReasonOutOfTurn)
	}
	if p.Discarded {
		return models.Reject(constants.RejectReasonAlreadyActed)
	}
	if len(cardIDs) > constants.RankedPlayDiscardAllowance {
		return models.Reject(constants.RejectReasonDiscardLimit)
	}

	// Validate the whole request before mutating anything. A card named twice
	// is only held once.
	indices := make([]int, 0, len(cardIDs))
	seen := make(map[int64]struct{}, len(cardIDs))
	for _, cardID := range cardIDs {
		if _, dup := seen[cardID]; dup {
			return models.Reject(constants.RejectReasonCardNotHeld)
		}
		seen[cardID] = struct{}{}

		idx, ok := p.holds(cardID)
		if !ok {
			return models.Reject(constants.RejectReasonCardNotHeld)
		}
		indices = append(indices, idx)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	for _, idx := range indices {
		p.removeCard(idx)
	}
	p.Discarded = true

	c.dealUpTo(scope, p)
	c.notifyHand(scope, p)
	c.broadcastState(scope)

	if c.allAlive(func(p *playerState) bool { return p.Discarded }) {
		c.shortCircuit(scope, true)
	}

	return nil
}

func (c *RankedPlay) playCard(scope *envelope.Scope, user *models.RoomUser, cardID int64) error {
	s := c.state()
	if s == nil || s.Stage != StagePlay {
		return models.Reject(constants.RejectReasonWrongStage)
	}

	p := s.player(user.UserID)
	if p == nil || p.Health <= 0 {
		return models.Reject(constants.RejectReasonOutOfTurn)
	}
	if p.Played != nil {
		return models.Reject(constants.RejectReasonAlreadyActed)
	}

	idx, ok := p.holds(cardID)
	if !ok {
		return models.Reject(constants.RejectReasonCardNotHeld)
	}

	card := p.removeCard(idx)
	p.Played = &card

	c.notifyHand(scope, p)
	c.broadcastState(scope)

	if c.allAlive(func(p *playerState) bool { return p.Played != nil }) {
		c.shortCircuit(scope, true)
	}

	return nil
}

func (c *RankedPlay) addPlayer(scope *envelope.Scope, user *models.RoomUser) {
	s := c.state()
	if _, ok := s.Players[user.UserID]; ok {
		return
	}

	p := &playerState{
		UserID: user.UserID,
		Health: constants.RankedPlayStartingHealth,
	}
	s.Players[user.UserID] = p
	user.MatchDetails = c.viewOf(p)
}

// dealUpTo tops the player's hand back up to the hand size, deck permitting.
func (c *RankedPlay) dealUpTo(scope *envelope.Scope, p *playerState) {
	s := c.state()
	take := mathutil.Min(constants.RankedPlayHandSize-len(p.Hand), len(s.Deck))
	if take <= 0 {
		return
	}

	p.Hand = append(p.Hand, s.Deck[:take]...)
	s.Deck = s.Deck[take:]
}

func (c *RankedPlay) notifyHand(scope *envelope.Scope, p *playerState) {
	hand := make([]Card, len(p.Hand))
	copy(hand, p.Hand)
	c.access.NotifyUser(scope, p.UserID, models.NewEvent(models.EventHandChanged, HandView{Cards: hand}))
}

func (c *RankedPlay) allAlive(pred func(*playerState) bool) bool {
	alive := c.state().alivePlayers()
	if len(alive) == 0 {
		return false
	}
	for _, p := range alive {
		if !pred(p) {
			return false
		}
	}
	return true
}

func (c *RankedPlay) viewOf(p *playerState) PlayerView {
	return PlayerView{
		UserID:    p.UserID,
		Health:    p.Health,
		HandSize:  len(p.Hand),
		Discarded: p.Discarded,
		Played:    p.Played != nil,
	}
}

func (c *RankedPlay) publicState() *PublicState {
	s := c.state()
	if s == nil {
		return nil
	}

	views := make([]PlayerView, 0, len(s.Players))
	for _, p := range s.Players {
		views = append(views, c.viewOf(p))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].UserID < views[j].UserID })

	return &PublicState{
		Stage:   s.Stage,
		Round:   s.Round,
		DeckLen: len(s.Deck),
		Players: views,
	}
}

// broadcastState pushes the public view and refreshes each roster member's
// per-user details.
func (c *RankedPlay) broadcastState(scope *envelope.Scope) {
	s := c.state()
	for _, user := range c.access.Room().Users {
		if p := s.player(user.UserID); p != nil {
			user.MatchDetails = c.viewOf(p)
		}
	}
	c.access.Broadcast(scope, models.NewEvent(models.EventMatchRoomStateChanged, c.publicState()))
}

func (c *RankedPlay) logEnterFailure(scope *envelope.Scope, err error) {
	if err != nil {
		scope.Log.WithError(err).Error(fmt.Sprintf("RANKEDPLAY: stage transition failed in room %d", c.access.Room().ID))
	}
}
