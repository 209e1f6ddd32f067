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

// Package helpers provides testing utilities shared across packages.
//
// The API helpers drive a real router over httptest: dial a WebSocket, send
// JSON-RPC requests over it or over POST, and call the REST endpoints.
//
// Example usage:
//
//	h := helpers.NewHTTPTestHelper(server.Router(ctx))
//	defer h.Close()
//
//	conn := h.DialWebSocket(t, "stage")
//	resp, err := helpers.SendJSONRPCRequest(conn, "timer.start", map[string]any{"minutes": 5})
//	require.NoError(t, err)
//	helpers.AssertJSONRPCSuccess(t, resp)
package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/gorilla/websocket"
	"github.com/olahol/melody"
	"github.com/stretchr/testify/require"
)

const defaultReadTimeout = 2 * time.Second

var (
	requestCounter atomic.Int64

	ErrNoMessage = errors.New("no matching message before timeout")
)

// JSONRPCRequest is a JSON-RPC request as a client sends it.
type JSONRPCRequest struct {
	ID      *models.RPCID `json:"id,omitempty"`
	Params  any           `json:"params,omitempty"`
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
}

// JSONRPCResponse is either a reply or a server notification. Notifications
// have a method and no ID.
type JSONRPCResponse struct {
	ID      *models.RPCID       `json:"id,omitempty"`
	Error   *models.ErrorObject `json:"error,omitempty"`
	JSONRPC string              `json:"jsonrpc"`
	Method  string              `json:"method,omitempty"`
	Result  json.RawMessage     `json:"result,omitempty"`
	Params  json.RawMessage     `json:"params,omitempty"`
}

// IsNotification reports whether the message was pushed by the server.
func (r *JSONRPCResponse) IsNotification() bool {
	return r.Method != "" && (r.ID == nil || r.ID.IsAbsent())
}

// DecodeResult unmarshals the result into v.
func (r *JSONRPCResponse) DecodeResult(v any) error {
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

// NewJSONRPCRequest builds a request with a fresh string ID.
func NewJSONRPCRequest(method string, params any) JSONRPCRequest {
	id := models.NewStringID("test-" + strconv.FormatInt(requestCounter.Add(1), 10))
	return JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
		Params:  params,
	}
}

// SendJSONRPCRequest sends a request and waits for the reply with the same
// ID, skipping any notifications received in between.
func SendJSONRPCRequest(conn *websocket.Conn, method string, params any) (*JSONRPCResponse, error) {
	request := NewJSONRPCRequest(method, params)

	requestData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, requestData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return ReadMessage(conn, defaultReadTimeout, func(r *JSONRPCResponse) bool {
		return r.ID != nil && r.ID.Equal(*request.ID)
	})
}

// SendJSONRPCNotification sends a request without an ID. No reply is due.
func SendJSONRPCNotification(conn *websocket.Conn, method string, params any) error {
	data, err := json.Marshal(JSONRPCRequest{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// WaitForNotification reads until the server pushes the given method.
func WaitForNotification(conn *websocket.Conn, method string, timeout time.Duration) (*JSONRPCResponse, error) {
	return ReadMessage(conn, timeout, func(r *JSONRPCResponse) bool {
		return r.IsNotification() && r.Method == method
	})
}

// ReadMessage reads JSON-RPC messages until one matches or the timeout
// passes. Text frames that aren't JSON, such as pong, are skipped.
func ReadMessage(
	conn *websocket.Conn,
	timeout time.Duration,
	match func(*JSONRPCResponse) bool,
) (*JSONRPCResponse, error) {
	deadline := time.Now().Add(timeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}
	defer func() {
		_ = conn.SetReadDeadline(time.Time{})
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, ErrNoMessage
			}
			return nil, fmt.Errorf("failed to read message: %w", err)
		}
		var msg JSONRPCResponse
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if match(&msg) {
			return &msg, nil
		}
	}
}

// AssertJSONRPCSuccess verifies a JSON-RPC response was successful
func AssertJSONRPCSuccess(t *testing.T, response *JSONRPCResponse) {
	t.Helper()
	require.NotNil(t, response, "response should not be nil")
	require.Nil(t, response.Error, "response should not contain an error")
	require.NotEmpty(t, response.Result, "response should contain a result")
}

// AssertJSONRPCError verifies a JSON-RPC response contains an error
func AssertJSONRPCError(t *testing.T, response *JSONRPCResponse, expectedCode int) {
	t.Helper()
	require.NotNil(t, response, "response should not be nil")
	require.NotNil(t, response.Error, "response should contain an error")
	require.Equal(t, expectedCode, response.Error.Code, "error code should match")
}

// HTTPTestHelper provides utilities for testing HTTP API endpoints
type HTTPTestHelper struct {
	Server *httptest.Server
	Client *http.Client
}

// NewHTTPTestHelper creates a new HTTP test helper with the given handler
func NewHTTPTestHelper(handler http.Handler) *HTTPTestHelper {
	server := httptest.NewServer(handler)
	return &HTTPTestHelper{
		Server: server,
		Client: server.Client(),
	}
}

// Close shuts down the test server
func (h *HTTPTestHelper) Close() {
	h.Server.Close()
}

// DialWebSocket opens a WebSocket to /api bound to session, or to the
// default session when empty. The connection is closed with the test.
func (h *HTTPTestHelper) DialWebSocket(t *testing.T, session string) *websocket.Conn {
	t.Helper()

	u, err := url.Parse(h.Server.URL)
	require.NoError(t, err, "failed to parse server URL")
	u.Scheme = "ws"
	u.Path = "/api"
	if session != "" {
		u.RawQuery = url.Values{"session": []string{session}}.Encode()
	}

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err, "failed to dial WebSocket")
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

// PostJSONRPC sends a JSON-RPC request via HTTP POST to /api.
func (h *HTTPTestHelper) PostJSONRPC(method string, params any) (*http.Response, error) {
	data, err := json.Marshal(NewJSONRPCRequest(method, params))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return h.Do(http.MethodPost, "/api", "application/json", data, nil)
}

// GetJSON calls a REST endpoint and decodes the JSON body into v. It
// returns the status code.
func (h *HTTPTestHelper) GetJSON(path string, headers map[string]string, v any) (int, error) {
	resp, err := h.Do(http.MethodGet, path, "", nil, headers)
	if err != nil {
		return 0, err
	}
	return decodeBody(resp, v)
}

// PostJSON posts body as JSON to a REST endpoint and decodes the reply into
// v. It returns the status code.
func (h *HTTPTestHelper) PostJSON(path string, body any, headers map[string]string, v any) (int, error) {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal body: %w", err)
		}
	}
	resp, err := h.Do(http.MethodPost, path, "application/json", data, headers)
	if err != nil {
		return 0, err
	}
	return decodeBody(resp, v)
}

// Do sends a raw request. The caller closes the response body.
func (h *HTTPTestHelper) Do(
	method, path, contentType string,
	body []byte,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(context.Background(), method, h.Server.URL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func decodeBody(resp *http.Response, v any) (int, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read body: %w", err)
	}
	if v == nil || len(data) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode body %q: %w", data, err)
	}
	return resp.StatusCode, nil
}

// WebSocketTestServer is a bare melody server for testing API clients
// against scripted replies.
type WebSocketTestServer struct {
	Server   *httptest.Server
	Melody   *melody.Melody
	Messages [][]byte
	mu       sync.RWMutex
}

// NewWebSocketTestServer serves handler on the API paths. A nil handler
// accepts connections and never replies.
func NewWebSocketTestServer(t *testing.T, handler func(*melody.Session, []byte)) *WebSocketTestServer {
	t.Helper()

	m := melody.New()
	wsts := &WebSocketTestServer{Melody: m}

	m.HandleMessage(func(session *melody.Session, msg []byte) {
		wsts.mu.Lock()
		wsts.Messages = append(wsts.Messages, append([]byte(nil), msg...))
		wsts.mu.Unlock()
		if handler != nil {
			handler(session, msg)
		}
	})

	serve := func(w http.ResponseWriter, r *http.Request) {
		if err := m.HandleRequest(w, r); err != nil {
			t.Logf("websocket test server: %v", err)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api", serve)
	mux.HandleFunc("/api/v0.1", serve)
	wsts.Server = httptest.NewServer(mux)
	return wsts
}

// Close shuts down the test server
func (wsts *WebSocketTestServer) Close() {
	_ = wsts.Melody.Close()
	wsts.Server.Close()
}

// GetMessages returns every message received so far.
func (wsts *WebSocketTestServer) GetMessages() [][]byte {
	wsts.mu.RLock()
	defer wsts.mu.RUnlock()
	return slices.Clone(wsts.Messages)
}

// Port is the port the test server listens on.
func (wsts *WebSocketTestServer) Port(t *testing.T) int {
	t.Helper()
	u, err := url.Parse(wsts.Server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}

// WaitForConnections waits until n clients are connected.
func (wsts *WebSocketTestServer) WaitForConnections(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return wsts.Melody.Len() >= n
	}, defaultReadTimeout, 5*time.Millisecond)
}

// CreateTestContext returns a context cancelled after timeout.
func CreateTestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
