// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rooms

import (
	"math"
	"sort"

	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

var scratch = models.NewPool()

// orderActiveItems assigns dense playlist orders 0..n-1 to the given active
// items according to the queue mode, mutating the items in place. It returns
// only the items whose order actually changed, so callers persist and
// broadcast the minimal set. Re-running on an already ordered playlist
// returns nothing.
func orderActiveItems(mode models.QueueMode, items []*models.PlaylistItem) []*models.PlaylistItem {
	if len(items) == 0 {
		return nil
	}

	var sequence []*models.PlaylistItem
	if mode == models.QueueModeRoundRobin {
		sequence = roundRobinSequence(items)
	} else {
		sequence = ownerPrioritySequence(items)
	}

	changed := scratch.PlaylistItems.Get()[:0]
	for position, item := range sequence {
		if item.PlaylistOrder != int32(position) {
			item.PlaylistOrder = int32(position)
			changed = append(changed, item)
		}
	}
	if len(changed) == 0 {
		scratch.PlaylistItems.Put(changed)
		return nil
	}

	// The scratch slice goes back to the pool; the returned copy is safe for
	// the caller to hold.
	result := make([]*models.PlaylistItem, len(changed))
	copy(result, changed)
	scratch.PlaylistItems.Put(changed[:0])

	return result
}

// ownerPrioritySequence is plain insertion order: ascending item ID.
func ownerPrioritySequence(items []*models.PlaylistItem) []*models.PlaylistItem {
	sequence := append([]*models.PlaylistItem(nil), items...)
	sort.Slice(sequence, func(i, j int) bool {
		return sequence[i].ID < sequence[j].ID
	})
	return sequence
}

// roundRobinSequence interleaves one item per owner per cycle. Owner groups
// keep their internal insertion order; the groups themselves are ordered by
// their first item's current playlist order (unset sorts last), then by
// first item ID, so repeated scheduling is stable.
func roundRobinSequence(items []*models.PlaylistItem) []*models.PlaylistItem {
	byOwner := make(map[int64][]*models.PlaylistItem)
	owners := make([]int64, 0, len(items))
	for _, item := range items {
		if _, seen := byOwner[item.OwnerID]; !seen {
			owners = append(owners, item.OwnerID)
		}
		byOwner[item.OwnerID] = append(byOwner[item.OwnerID], item)
	}

	for _, group := range byOwner {
		sort.Slice(group, func(i, j int) bool {
			return group[i].ID < group[j].ID
		})
	}

	sort.Slice(owners, func(i, j int) bool {
		a, b := byOwner[owners[i]][0], byOwner[owners[j]][0]
		ao, bo := normalisedOrder(a), normalisedOrder(b)
		if ao != bo {
			return ao < bo
		}
		return a.ID < b.ID
	})

	sequence := make([]*models.PlaylistItem, 0, len(items))
	for cycle := 0; len(sequence) < len(items); cycle++ {
		for _, owner := range owners {
			group := byOwner[owner]
			if cycle < len(group) {
				sequence = append(sequence, group[cycle])
			}
		}
	}

	return sequence
}

func normalisedOrder(item *models.PlaylistItem) int64 {
	if item.PlaylistOrder == models.OrderUnset {
		return math.MaxInt64
	}
	return int64(item.PlaylistOrder)
}
