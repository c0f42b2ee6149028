// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rankedplay

import (
	"sort"
	"time"

	"github.com/ppy/osu-server-spectator-sub002/pkg/constants"
	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/match"
	"github.com/ppy/osu-server-spectator-sub002/pkg/mathutil"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

/*
Every stage is entered through the same protocol: record the stage on the
match state, run begin for stage-specific side effects, broadcast, then start
a countdown for the stage's duration. Natural expiry calls finish, which
names the next stage. Any stage may be short-circuited by an event, which
cancels the countdown and runs finish early (optionally after a grace delay).

A duration of models.NoTimeout means the stage never advances on its own; a
zero duration advances on the next tick.
*/
type stageLogic interface {
	name() Stage
	duration(c *RankedPlay) time.Duration
	begin(scope *envelope.Scope, c *RankedPlay) error
	finish(scope *envelope.Scope, c *RankedPlay) (Stage, error)
}

var stages = map[Stage]stageLogic{
	StageWaitForJoin: waitForJoinStage{},
	StageRoundWarmup: roundWarmupStage{},
	StageDiscard:     discardStage{},
	StagePlay:        playStage{},
	StageFinish:      finishStage{},
	StageWarmup:      warmupStage{},
	StageGameplay:    gameplayStage{},
	StageResults:     resultsStage{},
	StageEnded:       endedStage{},
}

func stageFor(name Stage) stageLogic {
	return stages[name]
}

func (c *RankedPlay) enter(scope *envelope.Scope, st stageLogic) error {
	s := c.state()
	s.Stage = st.name()

	if err := st.begin(scope, c); err != nil {
		return err
	}
	c.broadcastState(scope)

	// begin may itself have transitioned (e.g. an empty round going straight
	// to the end); never arm a countdown for a stage already left.
	if s.Stage != st.name() {
		return nil
	}

	d := st.duration(c)
	if d == models.NoTimeout {
		return nil
	}

	c.access.StartCountdown(scope, models.CountdownStage, d, func(scope *envelope.Scope, _ match.RoomAccess) {
		c.logEnterFailure(scope, c.advance(scope))
	})

	return nil
}

// advance finishes the current stage and enters its successor.
func (c *RankedPlay) advance(scope *envelope.Scope) error {
	st := stageFor(c.state().Stage)

	next, err := st.finish(scope, c)
	if err != nil {
		return err
	}
	if next == "" || next == st.name() {
		return nil
	}

	return c.enter(scope, stageFor(next))
}

// shortCircuit ends the current stage early. With grace, the pending stage
// countdown is replaced by a short one so clients see the final state before
// the transition; without, the transition happens immediately.
func (c *RankedPlay) shortCircuit(scope *envelope.Scope, withGrace bool) {
	if withGrace {
		grace := c.access.Config().StageGraceDelay()
		if grace <= 0 {
			grace = constants.StageGraceDelay
		}
		c.access.StartCountdown(scope, models.CountdownStage, grace, func(scope *envelope.Scope, _ match.RoomAccess) {
			c.logEnterFailure(scope, c.advance(scope))
		})
		return
	}

	c.access.StopCountdown(scope, models.CountdownStage)
	c.logEnterFailure(scope, c.advance(scope))
}

type waitForJoinStage struct{}

func (waitForJoinStage) name() Stage { return StageWaitForJoin }

func (waitForJoinStage) duration(c *RankedPlay) time.Duration { return models.NoTimeout }

func (waitForJoinStage) begin(scope *envelope.Scope, c *RankedPlay) error { return nil }

func (waitForJoinStage) finish(scope *envelope.Scope, c *RankedPlay) (Stage, error) {
	return StageRoundWarmup, nil
}

type roundWarmupStage struct{}

func (roundWarmupStage) name() Stage { return StageRoundWarmup }

// duration runs after begin, so Round is already incremented: the first round
// gets a real warmup, later rounds skip it with a zero duration.
func (roundWarmupStage) duration(c *RankedPlay) time.Duration {
	if c.state().Round <= 1 {
		return constants.RoundWarmupDuration
	}
	return 0
}

// begin opens a new round: per-round flags reset and every living player's
// hand is topped back up.
func (roundWarmupStage) begin(scope *envelope.Scope, c *RankedPlay) error {
	s := c.state()
	s.Round++
	s.LastResults = nil

	for _, p := range s.alivePlayers() {
		p.Discarded = false
		p.Played = nil
		c.dealUpTo(scope, p)
		c.notifyHand(scope, p)
	}

	return nil
}

func (roundWarmupStage) finish(scope *envelope.Scope, c *RankedPlay) (Stage, error) {
	return StageDiscard, nil
}

type discardStage struct{}

func (discardStage) name() Stage { return StageDiscard }

func (discardStage) duration(c *RankedPlay) time.Duration { return constants.DiscardStageDuration }

func (discardStage) begin(scope *envelope.Scope, c *RankedPlay) error { return nil }

func (discardStage) finish(scope *envelope.Scope, c *RankedPlay) (Stage, error) {
	return StagePlay, nil
}

type playStage struct{}

func (playStage) name() Stage { return StagePlay }

func (playStage) duration(c *RankedPlay) time.Duration { return constants.PlayStageDuration }

func (playStage) begin(scope *envelope.Scope, c *RankedPlay) error { return nil }

// finish auto-plays the lowest card for anyone who ran out the clock.
func (playStage) finish(scope *envelope.Scope, c *RankedPlay) (Stage, error) {
	s := c.state()
	for _, p := range s.alivePlayers() {
		if p.Played != nil || len(p.Hand) == 0 {
			continue
		}
		card := p.removeCard(0)
		p.Played = &card
		c.notifyHand(scope, p)
	}

	return StageFinish, nil
}

type finishStage struct{}

func (finishStage) name() Stage { return StageFinish }

func (finishStage) duration(c *RankedPlay) time.Duration { return 0 }

// begin resolves the round's pick: the player with the lowest health chooses
// the map, ties broken by user ID. Unpicked played cards are spent.
func (finishStage) begin(scope *envelope.Scope, c *RankedPlay) error {
	s := c.state()

	played := make([]*playerState, 0, len(s.Players))
	for _, p := range s.alivePlayers() {
		if p.Played != nil {
			played = append(played, p)
		}
	}
	if len(played) == 0 {
		return nil
	}

	sort.Slice(played, func(i, j int) bool {
		if played[i].Health != played[j].Health {
			return played[i].Health < played[j].Health
		}
		return played[i].UserID < played[j].UserID
	})

	pick := played[0].Played
	if err := c.access.SetCurrentItem(scope, pick.ItemID); err != nil {
		return err
	}

	return nil
}

func (finishStage) finish(scope *envelope.Scope, c *RankedPlay) (Stage, error) {
	s := c.state()

	// Nothing was playable this round; settle the match instead of looping.
	hasPick := false
	for _, p := range s.Players {
		if p.Played != nil {
			hasPick = true
			break
		}
	}
	if !hasPick {
		return StageEnded, nil
	}

	return StageWarmup, nil
}

type warmupStage struct{}

func (warmupStage) name() Stage { return StageWarmup }

func (warmupStage) duration(c *RankedPlay) time.Duration { return constants.WarmupStageDuration }

func (warmupStage) begin(scope *envelope.Scope, c *RankedPlay) error { return nil }

func (warmupStage) finish(scope *envelope.Scope, c *RankedPlay) (Stage, error) {
	return StageGameplay, nil
}

type gameplayStage struct{}

func (gameplayStage) name() Stage { return StageGameplay }

func (gameplayStage) duration(c *RankedPlay) time.Duration { return models.NoTimeout }

func (gameplayStage) begin(scope *envelope.Scope, c *RankedPlay) error {
	c.access.BeginGameplay(scope)
	return nil
}

func (gameplayStage) finish(scope *envelope.Scope, c *RankedPlay) (Stage, error) {
	c.access.EndGameplay(scope)

	if err := c.access.ExpireCurrentItem(scope); err != nil {
		// Losing the persisted played flag is recoverable; the round still
		// scores.
		scope.Log.WithError(err).Warn("RANKEDPLAY: failed to expire current item")
	}

	return StageResults, nil
}

type resultsStage struct{}

func (resultsStage) name() Stage { return StageResults }

func (resultsStage) duration(c *RankedPlay) time.Duration { return constants.ResultsStageDuration }

// begin scores the finished round: players are ranked by total score and
// everyone below the top result takes margin-scaled damage.
func (resultsStage) begin(scope *envelope.Scope, c *RankedPlay) error {
	c.applyRoundDamage(scope)
	return nil
}

func (resultsStage) finish(scope *envelope.Scope, c *RankedPlay) (Stage, error) {
	s := c.state()
	if len(s.alivePlayers()) <= 1 || !s.cardsRemain() {
		return StageEnded, nil
	}
	return StageRoundWarmup, nil
}

type endedStage struct{}

func (endedStage) name() Stage { return StageEnded }

func (endedStage) duration(c *RankedPlay) time.Duration { return models.NoTimeout }

func (endedStage) begin(scope *envelope.Scope, c *RankedPlay) error {
	c.finalise(scope)
	c.access.CloseRoom(scope)
	return nil
}

func (endedStage) finish(scope *envelope.Scope, c *RankedPlay) (Stage, error) {
	return StageEnded, nil
}

// applyRoundDamage computes per-round damage from the last gameplay results.
// The top scorer takes none; a drawn round deals no damage at all.
func (c *RankedPlay) applyRoundDamage(scope *envelope.Scope) {
	s := c.state()
	if len(s.LastResults) == 0 {
		return
	}

	scores := make(map[int64]int64, len(s.LastResults))
	for _, result := range s.LastResults {
		scores[result.UserID] = result.TotalScore
	}

	var top int64
	for _, p := range s.alivePlayers() {
		if score := scores[p.UserID]; score > top {
			top = score
		}
	}
	if top == 0 {
		return
	}

	for _, p := range s.alivePlayers() {
		score := scores[p.UserID]
		if score == top {
			continue
		}

		margin := float64(top-score) / float64(top)
		damage := constants.RankedPlayBaseDamage + int(margin*float64(constants.RankedPlayMarginDamage))
		damage = mathutil.Clamp(damage, 0, constants.RankedPlayBaseDamage+constants.RankedPlayMarginDamage)

		p.Health = mathutil.Max(0, p.Health-damage)
		if p.Health == 0 {
			s.Eliminated = append(s.Eliminated, p.UserID)
		}
	}
}
