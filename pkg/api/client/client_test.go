// Zaparoo Countdown
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Countdown.
//
// Zaparoo Countdown is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Countdown is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Countdown.  If not, see <http://www.gnu.org/licenses/>.

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/testing/helpers"
	"github.com/olahol/melody"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replyWith answers every request with result.
func replyWith(result any) func(*melody.Session, []byte) {
	return func(session *melody.Session, msg []byte) {
		var request map[string]any
		if err := json.Unmarshal(msg, &request); err != nil {
			return
		}
		data, _ := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"result":  result,
			"id":      request["id"],
		})
		_ = session.Write(data)
	}
}

func serverConfig(t *testing.T, server *helpers.WebSocketTestServer) *config.Instance {
	t.Helper()
	return helpers.NewTestConfigWithPort(t, server.Port(t))
}

// unusedPort returns a port with nothing listening on it. There's a small
// race window but it's reliable for tests.
func unusedPort(t *testing.T) int {
	t.Helper()
	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	return port
}

// broadcastWhenConnected sends each message once the client has connected.
func broadcastWhenConnected(t *testing.T, server *helpers.WebSocketTestServer, msgs ...map[string]any) {
	t.Helper()
	go func() {
		if !assert.Eventually(t, func() bool {
			return server.Melody.Len() > 0
		}, 2*time.Second, 5*time.Millisecond) {
			return
		}
		for _, m := range msgs {
			data, _ := json.Marshal(m)
			_ = server.Melody.Broadcast(data)
		}
	}()
}

func TestLocalClient_ValidRequest(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, replyWith(map[string]any{"remaining": 300}))
	defer server.Close()

	result, err := LocalClient(context.Background(), serverConfig(t, server), "", models.MethodTimerStatus, `{"x":1}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"remaining":300}`, result)

	msgs := server.GetMessages()
	require.Len(t, msgs, 1)
	var req map[string]any
	require.NoError(t, json.Unmarshal(msgs[0], &req))
	assert.Equal(t, "2.0", req["jsonrpc"])
	assert.Equal(t, models.MethodTimerStatus, req["method"])
	assert.Equal(t, map[string]any{"x": float64(1)}, req["params"])
	assert.IsType(t, "", req["id"])
}

func TestLocalClient_EmptyParams(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, replyWith("success"))
	defer server.Close()

	result, err := LocalClient(context.Background(), serverConfig(t, server), "", "timer.pause", "")
	require.NoError(t, err)
	assert.Equal(t, `"success"`, result)

	var req map[string]any
	require.NoError(t, json.Unmarshal(server.GetMessages()[0], &req))
	assert.NotContains(t, req, "params")
}

func TestLocalClient_InvalidParams(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, func(_ *melody.Session, _ []byte) {
		t.Error("server should not be called with invalid params")
	})
	defer server.Close()

	_, err := LocalClient(context.Background(), serverConfig(t, server), "", "timer.start", "not valid json")
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestLocalClient_ErrorResponse(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, func(session *melody.Session, msg []byte) {
		var request map[string]any
		if err := json.Unmarshal(msg, &request); err != nil {
			return
		}
		data, _ := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"error":   map[string]any{"code": -32601, "message": "Method not found"},
			"id":      request["id"],
		})
		_ = session.Write(data)
	})
	defer server.Close()

	_, err := LocalClient(context.Background(), serverConfig(t, server), "", "nope", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Method not found")
}

func TestLocalClient_ContextCancellation(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, nil)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := LocalClient(ctx, serverConfig(t, server), "", "timer.status", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequestCancelled) || errors.Is(err, ErrRequestTimeout))
}

func TestLocalClient_IgnoresMismatchedIDs(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, func(session *melody.Session, msg []byte) {
		var request map[string]any
		if err := json.Unmarshal(msg, &request); err != nil {
			return
		}
		for _, m := range []map[string]any{
			{"jsonrpc": "2.0", "result": "wrong", "id": "completely-wrong-id"},
			{"jsonrpc": "1.0", "result": "old", "id": request["id"]},
			{"jsonrpc": "2.0", "result": "correct", "id": request["id"]},
		} {
			data, _ := json.Marshal(m)
			_ = session.Write(data)
		}
	})
	defer server.Close()

	result, err := LocalClient(context.Background(), serverConfig(t, server), "", "timer.status", "")
	require.NoError(t, err)
	assert.Equal(t, `"correct"`, result)
}

func TestLocalClient_SessionQuery(t *testing.T) {
	t.Parallel()

	got := make(chan string, 1)
	server := helpers.NewWebSocketTestServer(t, func(session *melody.Session, msg []byte) {
		got <- session.Request.URL.Query().Get("session")
		replyWith(true)(session, msg)
	})
	defer server.Close()

	_, err := LocalClient(context.Background(), serverConfig(t, server), "stage left", "timer.status", "")
	require.NoError(t, err)
	assert.Equal(t, "stage left", <-got)
}

func TestLocalClient_ConnectionFailure(t *testing.T) {
	t.Parallel()

	cfg := helpers.NewTestConfigWithPort(t, unusedPort(t))

	_, err := LocalClient(context.Background(), cfg, "", "timer.status", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to api")
}

func TestWaitNotification_ReceivesNotification(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, nil)
	defer server.Close()

	broadcastWhenConnected(t, server,
		map[string]any{"jsonrpc": "2.0", "method": "timer.changed", "params": map[string]any{"wrong": true}},
		map[string]any{
			"jsonrpc": "2.0", "method": "timer.extended", "id": "req-1",
			"params": map[string]any{"fromRequest": true},
		},
		map[string]any{"jsonrpc": "2.0", "method": "timer.extended", "params": map[string]any{"added": 300}},
	)

	result, err := WaitNotification(context.Background(), 2*time.Second, serverConfig(t, server), "",
		models.NotificationTimerExtended)
	require.NoError(t, err)
	assert.JSONEq(t, `{"added":300}`, result)
}

func TestWaitNotifications_ReceivesAnyOfMultiple(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, nil)
	defer server.Close()

	broadcastWhenConnected(t, server,
		map[string]any{"jsonrpc": "2.0", "method": "videos.added", "params": map[string]any{}},
		map[string]any{"jsonrpc": "2.0", "method": "overlay.play", "params": map[string]any{"path": "a.mp4"}},
	)

	method, params, err := WaitNotifications(context.Background(), 2*time.Second, serverConfig(t, server), "",
		models.NotificationOverlayPlay, models.NotificationOverlayFadeOut)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationOverlayPlay, method)
	assert.JSONEq(t, `{"path":"a.mp4"}`, params)
}

func TestWaitNotification_Timeout(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, nil)
	defer server.Close()

	_, err := WaitNotification(context.Background(), 100*time.Millisecond, serverConfig(t, server), "",
		models.NotificationTimerExtended)
	require.ErrorIs(t, err, ErrRequestTimeout)
}

func TestWaitNotification_ContextCancellation(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, nil)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := WaitNotification(ctx, -1, serverConfig(t, server), "", models.NotificationTimerExtended)
	require.ErrorIs(t, err, ErrRequestCancelled)
}

func TestLocalAPIClient(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, replyWith(map[string]any{"ok": true}))
	defer server.Close()

	c := NewLocalAPIClient(serverConfig(t, server), "default")
	result, err := c.Call(context.Background(), models.MethodOverlayEnded, `{"path":"a.mp4"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, result)

	_, err = c.Call(context.Background(), models.MethodTimerStart, "{bad")
	require.ErrorIs(t, err, ErrInvalidParams)
	assert.Contains(t, err.Error(), "api call failed")

	_, err = c.WaitNotification(context.Background(), 50*time.Millisecond, models.NotificationTimerChanged)
	require.ErrorIs(t, err, ErrRequestTimeout)
	assert.Contains(t, err.Error(), "wait notification failed")
}

func TestIsServiceRunning(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, replyWith(map[string]any{"version": "1.0.0"}))
	defer server.Close()

	assert.True(t, IsServiceRunning(serverConfig(t, server)))
	assert.False(t, IsServiceRunning(helpers.NewTestConfigWithPort(t, unusedPort(t))))
}

func TestWaitForAPI(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, replyWith(map[string]any{"version": "1.0.0"}))
	defer server.Close()

	start := time.Now()
	assert.True(t, WaitForAPI(serverConfig(t, server), 5*time.Second, 100*time.Millisecond))
	assert.Less(t, time.Since(start), time.Second)

	start = time.Now()
	assert.False(t, WaitForAPI(helpers.NewTestConfigWithPort(t, unusedPort(t)), 200*time.Millisecond,
		50*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}

func TestErrors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "request timed out", ErrRequestTimeout.Error())
	assert.Equal(t, "invalid params", ErrInvalidParams.Error())
	assert.Equal(t, "request cancelled", ErrRequestCancelled.Error())
	assert.Equal(t, "/api", APIPath)
}
