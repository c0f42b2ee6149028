// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"sync"
	"time"

	"github.com/ppy/osu-server-spectator-sub002/pkg/metrics"
)

// RejectionSample is one recorded RequestRejected call.
type RejectionSample struct {
	Operation string
	Reason    string
}

// MetricsRecorder is a no-op metrics collection that records rejection
// samples for assertions.
type MetricsRecorder struct {
	mu       sync.Mutex
	rejected []RejectionSample
}

func (r *MetricsRecorder) TrackedEntities(store string, count int) {}

func (r *MetricsRecorder) LockWaitDuration(store string, elapsed time.Duration) {}

func (r *MetricsRecorder) LockTimeout(store string) {}

func (r *MetricsRecorder) CountdownFired(kind string) {}

func (r *MetricsRecorder) RequestRejected(operation string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, RejectionSample{Operation: operation, Reason: reason})
}

func (r *MetricsRecorder) RoomEnded() {}

// Rejections snapshots the recorded RequestRejected samples.
func (r *MetricsRecorder) Rejections() []RejectionSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RejectionSample(nil), r.rejected...)
}

func NewMetrics() *MetricsRecorder {
	return &MetricsRecorder{}
}

var _ metrics.RoomServerMetrics = (*MetricsRecorder)(nil)
