// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package interop

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppy/osu-server-spectator-sub002/pkg/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&config.Config{
		InteropBaseURL:        baseURL,
		InteropRetryAttempts:  3,
		InteropBackoffSecond:  0,
		InteropCacheTTLSecond: 30,
	})
}

func TestAddUser_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	require.NoError(t, client.AddUser(context.Background(), 1, 10))
	assert.Equal(t, int32(3), calls.Load())
}

func TestAddUser_ExhaustedRetriesFail(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.AddUser(context.Background(), 1, 10)
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAddUser_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.AddUser(context.Background(), 1, 10)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusForbidden, remoteErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateRoom_CachedAfterSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rooms/7", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	require.NoError(t, client.CreateRoom(context.Background(), 7, 10))
	require.NoError(t, client.CreateRoom(context.Background(), 7, 10))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateRoom_FailureNotCached(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	assert.Error(t, client.CreateRoom(context.Background(), 7, 10))
	require.NoError(t, client.CreateRoom(context.Background(), 7, 10))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRemoveUser_UsesDelete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/rooms/1/users/10", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	require.NoError(t, client.RemoveUser(context.Background(), 1, 10))
}
