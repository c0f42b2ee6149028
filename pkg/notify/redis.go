// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package notify

import (
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

const (
	userChannelFormat = "mp:user:%d"
	roomChannelFormat = "mp:room:%d"
	allChannel        = "mp:all"
)

// RedisNotifier publishes events on per-user and per-room redis channels; the
// connection layer subscribes and fans out to sockets. Publish failures are
// logged and dropped.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(addr string) *RedisNotifier {
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (n *RedisNotifier) ToUser(scope *envelope.Scope, userID int64, event models.Event) {
	n.publish(scope, fmt.Sprintf(userChannelFormat, userID), event)
}

func (n *RedisNotifier) ToRoom(scope *envelope.Scope, roomID int64, event models.Event) {
	n.publish(scope, fmt.Sprintf(roomChannelFormat, roomID), event)
}

func (n *RedisNotifier) ToAll(scope *envelope.Scope, event models.Event) {
	n.publish(scope, allChannel, event)
}

func (n *RedisNotifier) publish(scope *envelope.Scope, channel string, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		scope.Log.WithError(err).WithField("event", event.Name).Error("failed to encode event")
		return
	}

	if err := n.client.Publish(scope.Ctx, channel, payload).Err(); err != nil {
		scope.Log.WithError(err).WithField("channel", channel).Warn("failed to publish event")
	}
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
