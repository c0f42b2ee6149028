// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"errors"
	"fmt"

	"github.com/ppy/osu-server-spectator-sub002/pkg/constants"
)

// RejectedError is a recoverable, caller-visible rejection of a user request.
// The room state is unchanged when one is returned.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("request rejected: %s", e.Reason)
}

// Reject builds a RejectedError carrying one of the stable reason strings
// from pkg/constants.
func Reject(reason string) error {
	return &RejectedError{Reason: reason}
}

// RejectionReason extracts the stable reason string when err is a rejection.
func RejectionReason(err error) (string, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason, true
	}
	return "", false
}

var rejectionCodeMap = map[string]int{
	constants.RejectReasonAlreadyInRoom:      420101,
	constants.RejectReasonNotInRoom:          420102,
	constants.RejectReasonNotJoined:          420103,
	constants.RejectReasonWrongPassword:      420104,
	constants.RejectReasonRoomClosed:         420105,
	constants.RejectReasonNotHost:            420106,
	constants.RejectReasonEnqueueLimit:       420107,
	constants.RejectReasonItemExpired:        420108,
	constants.RejectReasonItemNotOwned:       420109,
	constants.RejectReasonItemIsCurrent:      420110,
	constants.RejectReasonOutOfTurn:          420111,
	constants.RejectReasonAlreadyActed:       420112,
	constants.RejectReasonCardNotHeld:        420113,
	constants.RejectReasonDiscardLimit:       420114,
	constants.RejectReasonUnsupportedRuleset: 420115,
	constants.RejectReasonMatchInProgress:    420116,
	constants.RejectReasonMatchNotInProgress: 420117,
	constants.RejectReasonNoCurrentItem:      420118,
	constants.RejectReasonUnknownRequest:     420119,
	constants.RejectReasonWrongStage:         420120,
	constants.RejectReasonRoomFull:           420121,
	constants.RejectReasonRoomNotFound:       420122,
	constants.RejectReasonItemNotFound:       420123,
}

// RejectionCode returns a numeric code for the reason. It returns 420100 when
// the reason is not registered in the map.
func RejectionCode(reason string) int {
	code, ok := rejectionCodeMap[reason]
	if !ok {
		return 420100
	}
	return code
}
