// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package tracking provides the keyed entity registry used to serialize all
// mutations to a given room or user. Each tracked entity carries its own lock;
// operations on different keys proceed fully in parallel while operations on
// the same key are strictly ordered.
package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ppy/osu-server-spectator-sub002/pkg/constants"
	"github.com/ppy/osu-server-spectator-sub002/pkg/metrics"
)

// trackedEntity pairs one lock with one payload. The payload may only be
// touched while the semaphore is held.
type trackedEntity[T any] struct {
	sem       chan struct{}
	item      *T
	destroyed bool
}

// EntityStore tracks entities of one kind by numeric key.
type EntityStore[T any] struct {
	name         string
	lockTimeout  time.Duration
	attemptLimit int
	metrics      metrics.RoomServerMetrics

	mu        sync.Mutex
	entities  map[int64]*trackedEntity[T]
	accepting bool
}

// NewEntityStore creates a store. Non-positive lockTimeout or attemptLimit
// select the code defaults.
func NewEntityStore[T any](name string, lockTimeout time.Duration, attemptLimit int, collection metrics.RoomServerMetrics) *EntityStore[T] {
	if lockTimeout <= 0 {
		lockTimeout = constants.EntityLockTimeLimit
	}
	if attemptLimit <= 0 {
		attemptLimit = constants.EntityUsageAttemptLimit
	}

	return &EntityStore[T]{
		name:         name,
		lockTimeout:  lockTimeout,
		attemptLimit: attemptLimit,
		metrics:      collection,
		entities:     make(map[int64]*trackedEntity[T]),
		accepting:    true,
	}
}

// GetForUse waits for exclusive access to the entity with the given key and
// returns a Usage lease over its payload. When createIfNotFound is false and
// the key is untracked the call fails with ErrNotFound.
//
// An entity destroyed between the lookup and the lock grant causes the whole
// lookup to be retried; exhausting the attempt limit returns
// ErrUsageRetriesExhausted.
func (s *EntityStore[T]) GetForUse(ctx context.Context, id int64, createIfNotFound bool) (*Usage[T], error) {
	for attempt := 0; attempt < s.attemptLimit; attempt++ {
		entity, err := s.findOrCreate(id, createIfNotFound)
		if err != nil {
			return nil, err
		}

		if err := s.acquire(ctx, entity); err != nil {
			return nil, err
		}

		// Written only while the lock is held, so this read is ordered after
		// the destroyer's write.
		if entity.destroyed {
			s.releaseLock(entity)
			continue
		}

		return &Usage[T]{store: s, id: id, entity: entity}, nil
	}

	return nil, fmt.Errorf("%w: key %d in store %q", ErrUsageRetriesExhausted, id, s.name)
}

// Destroy removes the entity with the given key forever. Untracked keys are a
// no-op. Destruction holds the entity lock so it cannot race a reader; waiters
// blocked on the lock observe the destruction and fail with ErrNotFound.
func (s *EntityStore[T]) Destroy(ctx context.Context, id int64) error {
	s.mu.Lock()
	entity, ok := s.entities[id]
	s.mu.Unlock()

	if !ok {
		return nil
	}

	if err := s.acquire(ctx, entity); err != nil {
		return err
	}

	entity.destroyed = true
	entity.item = nil
	s.remove(id, entity)
	s.releaseLock(entity)

	return nil
}

// GetEntityUnsafe returns the payload without taking the entity lock. For
// diagnostics and read-only listings only: the caller must not mutate the
// result and must tolerate staleness.
func (s *EntityStore[T]) GetEntityUnsafe(id int64) (*T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.entities[id]
	if !ok {
		return nil, false
	}
	return entity.item, true
}

// GetAllEntities snapshots every tracked payload. Same caveats as
// GetEntityUnsafe.
func (s *EntityStore[T]) GetAllEntities() map[int64]*T {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make(map[int64]*T, len(s.entities))
	for id, entity := range s.entities {
		all[id] = entity.item
	}
	return all
}

// StopAcceptingEntities is a one-way switch used during graceful shutdown.
// Existing entities continue to function.
func (s *EntityStore[T]) StopAcceptingEntities() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accepting = false
}

func (s *EntityStore[T]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}

func (s *EntityStore[T]) findOrCreate(id int64, createIfNotFound bool) (*trackedEntity[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.entities[id]
	if ok {
		return entity, nil
	}

	if !createIfNotFound {
		return nil, fmt.Errorf("%w: key %d in store %q", ErrNotFound, id, s.name)
	}
	if !s.accepting {
		return nil, fmt.Errorf("%w: store %q", ErrShuttingDown, s.name)
	}

	entity = &trackedEntity[T]{sem: make(chan struct{}, 1)}
	s.entities[id] = entity
	if s.metrics != nil {
		s.metrics.TrackedEntities(s.name, len(s.entities))
	}

	return entity, nil
}

func (s *EntityStore[T]) acquire(ctx context.Context, entity *trackedEntity[T]) error {
	start := time.Now()
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case entity.sem <- struct{}{}:
		if s.metrics != nil {
			s.metrics.LockWaitDuration(s.name, time.Since(start))
		}
		return nil
	case <-timer.C:
		if s.metrics != nil {
			s.metrics.LockTimeout(s.name)
		}
		return fmt.Errorf("%w: store %q", ErrLockTimeout, s.name)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *EntityStore[T]) releaseLock(entity *trackedEntity[T]) {
	<-entity.sem
}

func (s *EntityStore[T]) remove(id int64, entity *trackedEntity[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Guard against removing a successor entity created under the same key.
	if current, ok := s.entities[id]; ok && current == entity {
		delete(s.entities, id)
		if s.metrics != nil {
			s.metrics.TrackedEntities(s.name, len(s.entities))
		}
	}
}
