// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	trackedEntities  prometheus.GaugeVec
	lockWaitDuration prometheus.HistogramVec
	lockTimeouts     prometheus.CounterVec
	countdownsFired  prometheus.CounterVec
	rejectedRequests prometheus.CounterVec
	roomsEnded       prometheus.Counter
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	trackedEntities := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mp_server_tracked_entities",
			Help: "Number of entities currently tracked per store",
		}, []string{"store"})

	//nolint:promlinter
	lockWaitDuration := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mp_server_entity_lock_wait_ms",
			Help:    "A histogram of entity lock acquisition wait time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"store"})

	lockTimeouts := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mp_server_entity_lock_timeouts",
			Help: "Number of entity lock acquisitions that exceeded the wait bound",
		}, []string{"store"})

	countdownsFired := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mp_server_countdowns_fired",
			Help: "Number of room countdowns that ran to natural expiry",
		}, []string{"kind"})

	rejectedRequests := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mp_server_rejected_requests",
			Help: "Number of user requests rejected per operation and reason",
		}, []string{"operation", "reason"})

	roomsEnded := factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mp_server_rooms_ended",
			Help: "Number of rooms that reached the end of their lifecycle",
		})

	return prometheusMetrics{
		trackedEntities:  *trackedEntities,
		lockWaitDuration: *lockWaitDuration,
		lockTimeouts:     *lockTimeouts,
		countdownsFired:  *countdownsFired,
		rejectedRequests: *rejectedRequests,
		roomsEnded:       roomsEnded,
	}
}

func (metrics prometheusMetrics) TrackedEntities(store string, count int) {
	metrics.trackedEntities.With(prometheus.Labels{"store": store}).Set(float64(count))
}

func (metrics prometheusMetrics) LockWaitDuration(store string, elapsed time.Duration) {
	metrics.lockWaitDuration.With(prometheus.Labels{"store": store}).Observe(float64(elapsed.Milliseconds()))
}

func (metrics prometheusMetrics) LockTimeout(store string) {
	metrics.lockTimeouts.With(prometheus.Labels{"store": store}).Add(1)
}

func (metrics prometheusMetrics) CountdownFired(kind string) {
	metrics.countdownsFired.With(prometheus.Labels{"kind": kind}).Add(1)
}

func (metrics prometheusMetrics) RequestRejected(operation string, reason string) {
	metrics.rejectedRequests.With(prometheus.Labels{"operation": operation, "reason": reason}).Add(1)
}

func (metrics prometheusMetrics) RoomEnded() {
	metrics.roomsEnded.Add(1)
}
