// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package tracking

import (
	"errors"
)

var (
	// ErrNotFound is returned when an entity is not tracked and creation was
	// not requested, or the entity was destroyed while waiting.
	ErrNotFound = errors.New("entity is not tracked")

	// ErrLockTimeout is returned when the lock wait bound is exceeded. This is
	// an operator/programming condition, not a user-facing state.
	ErrLockTimeout = errors.New("timed out waiting for entity lock")

	// ErrShuttingDown is returned for create-on-missing lookups after the
	// store stopped accepting new entities.
	ErrShuttingDown = errors.New("store is no longer accepting new entities")

	// ErrUsageRetriesExhausted is returned after repeated creation/destruction
	// races. It indicates a severe invariant violation and is fatal for the
	// triggering operation only.
	ErrUsageRetriesExhausted = errors.New("entity usage attempts exhausted")
)
