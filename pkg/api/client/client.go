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

// Package client talks to a running countdown service over its local
// WebSocket API. The CLI uses it to control timers and to check the service
// is up.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrInvalidParams    = errors.New("invalid params")
	ErrRequestCancelled = errors.New("request cancelled")
)

const APIPath = "/api"

func localURL(cfg *config.Instance, session string) string {
	u := url.URL{
		Scheme: "ws",
		Host:   "localhost:" + strconv.Itoa(cfg.APIPort()),
		Path:   APIPath,
	}
	if session != "" {
		u.RawQuery = url.Values{"session": []string{session}}.Encode()
	}
	return u.String()
}

func dial(ctx context.Context, cfg *config.Instance, session string) (*websocket.Conn, error) {
	c, resp, err := websocket.DefaultDialer.DialContext(ctx, localURL(cfg, session), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to api: %w", err)
	}
	return c, nil
}

func closeConn(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing websocket")
	}
}

// timeoutChan returns a channel for the wait: the API request timeout when
// zero, never when negative.
func timeoutChan(timeout time.Duration) (<-chan time.Time, func()) {
	switch {
	case timeout == 0:
		timeout = config.APIRequestTimeout
	case timeout < 0:
		return nil, func() {}
	}
	t := time.NewTimer(timeout)
	return t.C, func() { t.Stop() }
}

// LocalClient sends a single method with params to the local running API
// service for the given session, waits for a response until timeout then
// disconnects. An empty session uses the default one.
func LocalClient(
	ctx context.Context,
	cfg *config.Instance,
	session string,
	method string,
	params string,
) (string, error) {
	id := models.NewStringID(uuid.New().String())
	req := models.RequestObject{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
	}
	switch {
	case params == "":
	case json.Valid([]byte(params)):
		req.Params = []byte(params)
	default:
		return "", ErrInvalidParams
	}

	c, err := dial(ctx, cfg, session)
	if err != nil {
		return "", err
	}
	defer closeConn(c)

	done := make(chan struct{})
	var resp *models.ResponseObject
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("error reading message")
				return
			}
			var m models.ResponseObject
			if err := json.Unmarshal(message, &m); err != nil {
				continue
			}
			if m.JSONRPC != "2.0" {
				log.Error().Msg("invalid jsonrpc version")
				continue
			}
			if !m.ID.Equal(id) {
				continue
			}
			resp = &m
			return
		}
	}()

	if err := c.WriteJSON(req); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	timeout, stop := timeoutChan(0)
	defer stop()
	select {
	case <-done:
	case <-timeout:
		closeConn(c)
		return "", ErrRequestTimeout
	case <-ctx.Done():
		closeConn(c)
		return "", ErrRequestCancelled
	}

	if resp == nil {
		return "", ErrRequestTimeout
	}
	if resp.Error != nil {
		return "", errors.New(resp.Error.Message)
	}
	b, err := json.Marshal(resp.Result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(b), nil
}

// WaitNotification blocks until the service pushes the named notification
// and returns its params.
func WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	cfg *config.Instance,
	session string,
	method string,
) (string, error) {
	_, params, err := WaitNotifications(ctx, timeout, cfg, session, method)
	return params, err
}

// WaitNotifications blocks until the service pushes any of the named
// notifications and returns which one arrived with its params. A zero
// timeout uses the API request timeout, a negative one waits forever.
func WaitNotifications(
	ctx context.Context,
	timeout time.Duration,
	cfg *config.Instance,
	session string,
	methods ...string,
) (method, params string, err error) {
	c, err := dial(ctx, cfg, session)
	if err != nil {
		return "", "", err
	}
	defer closeConn(c)

	done := make(chan struct{})
	var resp *models.RequestObject
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("error reading message")
				return
			}
			var m models.RequestObject
			if err := json.Unmarshal(message, &m); err != nil {
				continue
			}
			if m.JSONRPC != "2.0" {
				log.Error().Msg("invalid jsonrpc version")
				continue
			}
			if !m.ID.IsAbsent() {
				continue
			}
			if !slices.Contains(methods, m.Method) {
				continue
			}
			resp = &m
			return
		}
	}()

	timeoutC, stop := timeoutChan(timeout)
	defer stop()
	select {
	case <-done:
	case <-timeoutC:
		closeConn(c)
		return "", "", ErrRequestTimeout
	case <-ctx.Done():
		closeConn(c)
		return "", "", ErrRequestCancelled
	}

	if resp == nil {
		return "", "", ErrRequestTimeout
	}
	return resp.Method, string(resp.Params), nil
}

// IsServiceRunning reports whether the local API answers a version call.
func IsServiceRunning(cfg *config.Instance) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := LocalClient(ctx, cfg, "", models.MethodVersion, "")
	if err != nil {
		log.Debug().Err(err).Msg("service not running")
		return false
	}
	return true
}

// WaitForAPI polls the local API every interval until it answers or
// timeout passes.
func WaitForAPI(cfg *config.Instance, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if IsServiceRunning(cfg) {
			return true
		}
		if time.Now().Add(interval).After(deadline) {
			time.Sleep(time.Until(deadline))
			return IsServiceRunning(cfg)
		}
		time.Sleep(interval)
	}
}
