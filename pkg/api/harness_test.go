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
	"context"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/broker"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/entertainment"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/sessions"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/testing/helpers"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/timer"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const testVideosRoot = "/vids"

var testEpoch = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	ctx      context.Context
	server   *Server
	http     *helpers.HTTPTestHelper
	sessions *sessions.Manager
	clock    *clockwork.FakeClock
	cfg      *config.Instance
	logDir   string
}

// newTestServer serves the full router over httptest with a small
// in-memory video library and a fake clock. Notifications reach WebSocket
// clients through a broker as in the running service.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	fs := helpers.NewMemoryFS()
	require.NoError(t, fs.CreateVideoLibrary(testVideosRoot, "b.mp4", "sub/c.webm"))
	require.NoError(t, fs.WriteFile(testVideosRoot+"/a.mp4", []byte("video-a")))
	lib := videos.NewLibrary(fs.Fs, testVideosRoot, config.DefaultVideoExtensions)

	prober := helpers.NewFakeProber(map[string]float64{"a.mp4": 12, "b.mp4": 30.4, "c.webm": 45})
	cache := videos.NewCache(lib, prober, time.Second, 2)
	vs, err := lib.List()
	require.NoError(t, err)
	require.NoError(t, cache.ScanAll(ctx, vs))

	ns := make(chan models.Notification, 100)
	b := broker.NewBroker(ctx, ns)
	b.Start()

	clock := clockwork.NewFakeClockAt(testEpoch)
	mgr := sessions.NewManager(ctx, sessions.Options{
		Clock:         clock,
		Library:       lib,
		Lookup:        cache.Duration,
		Notifications: ns,
		Timer:         timer.DefaultSettings(),
		Entertainment: entertainment.DefaultSettings(),
	})

	cfg := helpers.NewTestConfig(t)
	logDir := t.TempDir()
	srv := NewServer(Options{
		Config:   cfg,
		Sessions: mgr,
		Library:  lib,
		Cache:    cache,
		Broker:   b,
		LogDir:   logDir,
	})

	notifications, id := b.Subscribe(notificationBuffer)
	go func() {
		srv.broadcastNotifications(ctx, notifications)
		b.Unsubscribe(id)
	}()

	h := helpers.NewHTTPTestHelper(srv.Router(ctx))
	t.Cleanup(h.Close)

	return &testServer{
		ctx:      ctx,
		server:   srv,
		http:     h,
		sessions: mgr,
		clock:    clock,
		cfg:      cfg,
		logDir:   logDir,
	}
}

func (ts *testServer) session(t *testing.T, id string) *sessions.Session {
	t.Helper()
	s, err := ts.sessions.Get(id)
	require.NoError(t, err)
	return s
}
