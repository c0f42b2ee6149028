// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package interop calls the separate web service that is the system of record
// for room creation and membership bookkeeping.
package interop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppy/osu-server-spectator-sub002/pkg/config"
)

// Membership is the remote room-membership contract the core depends on.
type Membership interface {
	CreateRoom(ctx context.Context, roomID int64, hostID int64) error
	AddUser(ctx context.Context, roomID int64, userID int64) error
	RemoveUser(ctx context.Context, roomID int64, userID int64) error
}

// RemoteError is a non-retried 4xx response from the web service.
type RemoteError struct {
	StatusCode int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("interop request rejected with status %d", e.StatusCode)
}

// Client is the HTTP implementation of Membership. Calls failing with a 5xx
// are retried a fixed number of times with a fixed backoff; 4xx responses are
// returned immediately. Successful CreateRoom calls are cached for a short
// TTL so racing joins do not re-create the remote room.
type Client struct {
	baseURL  string
	http     *http.Client
	attempts int
	backoff  time.Duration
	created  *gocache.Cache
}

func NewClient(cfg *config.Config) *Client {
	attempts := cfg.InteropRetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	return &Client{
		baseURL:  cfg.InteropBaseURL,
		http:     &http.Client{Timeout: 10 * time.Second},
		attempts: attempts,
		backoff:  cfg.InteropBackoff(),
		created:  gocache.New(cfg.InteropCacheTTL(), 2*cfg.InteropCacheTTL()),
	}
}

func (c *Client) CreateRoom(ctx context.Context, roomID int64, hostID int64) error {
	key := fmt.Sprintf("room-created/%d", roomID)
	if _, hit := c.created.Get(key); hit {
		return nil
	}

	err := c.post(ctx, fmt.Sprintf("/rooms/%d", roomID), map[string]int64{"host_id": hostID})
	if err != nil {
		return err
	}

	c.created.SetDefault(key, struct{}{})
	return nil
}

func (c *Client) AddUser(ctx context.Context, roomID int64, userID int64) error {
	return c.post(ctx, fmt.Sprintf("/rooms/%d/users/%d", roomID, userID), nil)
}

func (c *Client) RemoveUser(ctx context.Context, roomID int64, userID int64) error {
	return c.delete(ctx, fmt.Sprintf("/rooms/%d/users/%d", roomID, userID))
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}
	return c.doWithRetry(ctx, http.MethodPost, path, body)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.doWithRetry(ctx, http.MethodDelete, path, nil)
}

func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte) error {
	var lastErr error

	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("interop %s %s: status %d", method, path, resp.StatusCode)
		default:
			return &RemoteError{StatusCode: resp.StatusCode}
		}
	}

	return lastErr
}
