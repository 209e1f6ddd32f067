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

package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/testing/helpers"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocket_RequestAndNotification(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	conn := ts.http.DialWebSocket(t, "stage")

	resp, err := helpers.SendJSONRPCRequest(conn, models.MethodTimerStart, map[string]any{"minutes": 4})
	require.NoError(t, err)
	helpers.AssertJSONRPCSuccess(t, resp)

	var st models.TimerResponse
	require.NoError(t, resp.DecodeResult(&st))
	assert.Equal(t, "stage", st.Session)
	assert.Equal(t, 240, st.Remaining)

	n, err := helpers.WaitForNotification(conn, models.NotificationTimerChanged, 2*time.Second)
	require.NoError(t, err)
	var changed models.TimerResponse
	require.NoError(t, json.Unmarshal(n.Params, &changed))
	assert.Equal(t, "stage", changed.Session)
	assert.True(t, changed.IsRunning)
}

func TestWebSocket_ErrorReply(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	conn := ts.http.DialWebSocket(t, "")

	resp, err := helpers.SendJSONRPCRequest(conn, "launch", nil)
	require.NoError(t, err)
	helpers.AssertJSONRPCError(t, resp, JSONRPCErrorMethodNotFound.Code)

	resp, err = helpers.SendJSONRPCRequest(conn, models.MethodOverlayEnded, map[string]any{"path": "/etc/passwd"})
	require.NoError(t, err)
	helpers.AssertJSONRPCError(t, resp, JSONRPCErrorInvalidParams.Code)
}

func TestWebSocket_NotificationsFilteredBySession(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	stage := ts.http.DialWebSocket(t, "stage")
	hall := ts.http.DialWebSocket(t, "hall")
	unbound := ts.http.DialWebSocket(t, "")

	// make sure every connection is registered before broadcasting
	for _, c := range []*websocket.Conn{stage, hall, unbound} {
		resp, err := helpers.SendJSONRPCRequest(c, models.MethodVersion, nil)
		require.NoError(t, err)
		helpers.AssertJSONRPCSuccess(t, resp)
	}

	ts.session(t, "hall").Start(2)

	n, err := helpers.WaitForNotification(hall, models.NotificationTimerChanged, 2*time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(n.Params), `"session":"hall"`)

	_, err = helpers.WaitForNotification(stage, models.NotificationTimerChanged, 200*time.Millisecond)
	require.ErrorIs(t, err, helpers.ErrNoMessage)

	n, err = helpers.WaitForNotification(unbound, models.NotificationTimerChanged, 2*time.Second)
	require.NoError(t, err, "unbound clients receive every session")
	assert.Contains(t, string(n.Params), `"session":"hall"`)
}

func TestWebSocket_PingPong(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	conn := ts.http.DialWebSocket(t, "")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(data))
}

func TestWebSocket_ClientNotificationGetsNoReply(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	conn := ts.http.DialWebSocket(t, "")

	require.NoError(t, helpers.SendJSONRPCNotification(conn, models.MethodTimerStart, map[string]any{"minutes": 1}))

	_, err := helpers.ReadMessage(conn, 300*time.Millisecond, func(r *helpers.JSONRPCResponse) bool {
		return !r.IsNotification()
	})
	require.ErrorIs(t, err, helpers.ErrNoMessage)
	assert.True(t, ts.session(t, "").Status().IsRunning)
}
