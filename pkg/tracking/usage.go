// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package tracking

// Usage is a scoped exclusive lease on one entity's payload. It is owned by
// the acquiring operation for its duration and never shared; Release must run
// on every exit path, usually via defer.
type Usage[T any] struct {
	store    *EntityStore[T]
	id       int64
	entity   *trackedEntity[T]
	released bool
}

// ID returns the key this lease is bound to.
func (u *Usage[T]) ID() int64 {
	return u.id
}

// Item returns the payload, nil until first assigned.
func (u *Usage[T]) Item() *T {
	return u.entity.item
}

// SetItem assigns the payload.
func (u *Usage[T]) SetItem(item *T) {
	u.entity.item = item
}

// Destroy irrevocably removes the entity while it is already held by this
// lease. Any waiter blocked on the lock fails with ErrNotFound.
func (u *Usage[T]) Destroy() {
	if u.released {
		return
	}

	u.entity.destroyed = true
	u.entity.item = nil
	u.store.remove(u.id, u.entity)
	u.Release()
}

// Release returns the lock to the next waiter. Idempotent.
func (u *Usage[T]) Release() {
	if u.released {
		return
	}

	u.released = true
	u.store.releaseLock(u.entity)
}
