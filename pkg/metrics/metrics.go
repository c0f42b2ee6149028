// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type RoomServerMetrics interface {
	TrackedEntities(store string, count int)
	LockWaitDuration(store string, elapsed time.Duration)
	LockTimeout(store string)
	CountdownFired(kind string)
	RequestRejected(operation string, reason string)
	RoomEnded()
}

func NewMetrics(registry *prometheus.Registry) RoomServerMetrics {
	return setupPrometheusMetrics(registry)
}
