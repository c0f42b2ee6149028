// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package constants

import "time"

const (
	// EntityLockTimeLimit bounds how long an operation may wait for a room or
	// user lock before it is treated as an operator error.
	EntityLockTimeLimit = 10 * time.Second

	// EntityUsageAttemptLimit bounds retries of the lookup/lock cycle when an
	// entity is destroyed between being found and its lock being granted.
	EntityUsageAttemptLimit = 5
)

const (
	RoomsStoreName = "rooms"
	UsersStoreName = "users"
)

const (
	JoinRoomOperation       = "joinRoom"
	LeaveRoomOperation      = "leaveRoom"
	ChangeSettingsOperation = "changeSettings"
	AddItemOperation        = "addPlaylistItem"
	EditItemOperation       = "editPlaylistItem"
	RemoveItemOperation     = "removePlaylistItem"
	StartMatchOperation     = "startMatch"
	StartCountdownOperation = "startMatchCountdown"
	StopCountdownOperation  = "stopMatchCountdown"
	AbortMatchOperation     = "abortMatch"
	GameplayOperation       = "gameplayCompleted"
	UserRequestOperation    = "matchUserRequest"
)

// Rejected request reason constants. These are stable strings surfaced to
// the protocol layer, never free-form error text.
const (
	RejectReasonAlreadyInRoom      = "reject_user_already_in_room"
	RejectReasonRoomNotFound       = "reject_room_not_found"
	RejectReasonItemNotFound       = "reject_item_not_found"
	RejectReasonNotInRoom          = "reject_user_not_in_room"
	RejectReasonNotJoined          = "reject_user_not_joined_to_room"
	RejectReasonWrongPassword      = "reject_incorrect_password"
	RejectReasonRoomClosed         = "reject_room_closed"
	RejectReasonNotHost            = "reject_user_is_not_host"
	RejectReasonEnqueueLimit       = "reject_user_enqueue_limit_reached"
	RejectReasonItemExpired        = "reject_item_already_played"
	RejectReasonItemNotOwned       = "reject_item_not_owned"
	RejectReasonItemIsCurrent      = "reject_item_is_current"
	RejectReasonOutOfTurn          = "reject_acting_out_of_turn"
	RejectReasonAlreadyActed       = "reject_already_acted_this_stage"
	RejectReasonCardNotHeld        = "reject_card_not_held"
	RejectReasonDiscardLimit       = "reject_discard_limit_exceeded"
	RejectReasonUnsupportedRuleset = "reject_unsupported_content_ruleset"
	RejectReasonMatchInProgress    = "reject_match_in_progress"
	RejectReasonMatchNotInProgress = "reject_match_not_in_progress"
	RejectReasonNoCurrentItem      = "reject_no_current_playlist_item"
	RejectReasonUnknownRequest     = "reject_unknown_match_request"
	RejectReasonWrongStage         = "reject_wrong_stage_for_request"
	RejectReasonRoomFull           = "reject_room_full"
)

// Ranked play stage durations. An unbounded stage never times out on its own;
// a zero duration advances on the next tick.
const (
	RoundWarmupDuration  = 30 * time.Second
	DiscardStageDuration = 30 * time.Second
	PlayStageDuration    = 30 * time.Second
	WarmupStageDuration  = 10 * time.Second
	ResultsStageDuration = 30 * time.Second

	// StageGraceDelay is applied when a stage is short-circuited because every
	// required user already acted, so late observers still see the state.
	StageGraceDelay = 4 * time.Second
)

const (
	RankedPlayRequiredUsers    = 2
	RankedPlayStartingHealth   = 100
	RankedPlayHandSize         = 4
	RankedPlayDiscardAllowance = 2
	RankedPlayBaseDamage       = 15
	RankedPlayMarginDamage     = 25
)
