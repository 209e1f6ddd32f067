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

package sessions

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/database"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/entertainment"
	testhelpers "github.com/ZaparooProject/zaparoo-countdown/pkg/testing/helpers"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/timer"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var testEpoch = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type emptyLibrary struct{}

func (emptyLibrary) List() ([]videos.Video, error) { return nil, nil }

func noDurations(string) (int, bool) { return 0, false }

func newTestManager(
	t *testing.T,
	db database.StateDBI,
) (*Manager, *clockwork.FakeClock, chan models.Notification) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	clock := clockwork.NewFakeClockAt(testEpoch)
	ns := make(chan models.Notification, 500)
	m := NewManager(ctx, Options{
		Clock:         clock,
		DB:            db,
		Library:       emptyLibrary{},
		Lookup:        noDurations,
		Notifications: ns,
		Timer:         timer.DefaultSettings(),
		Entertainment: entertainment.DefaultSettings(),
		TTL:           time.Hour,
	})
	t.Cleanup(func() {
		cancel()
		m.shutdown()
	})
	return m, clock, ns
}

func drainMethods(ns chan models.Notification) []string {
	var methods []string
	for {
		select {
		case n := <-ns:
			methods = append(methods, n.Method)
		default:
			return methods
		}
	}
}

func TestNormalizeID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{name: "empty is default", id: "", want: models.DefaultSession},
		{name: "plain", id: "stage-left", want: "stage-left"},
		{name: "spaces allowed", id: "main room", want: "main room"},
		{name: "max length", id: strings.Repeat("a", 64), want: strings.Repeat("a", 64)},
		{name: "too long", id: strings.Repeat("a", 65), wantErr: true},
		{name: "control char", id: "a\nb", wantErr: true},
		{name: "non ascii", id: "bühne", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeID(tt.id)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManager_GetCreatesOnce(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t, nil)

	a, err := m.Get("")
	require.NoError(t, err)
	b, err := m.Get(models.DefaultSession)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, models.DefaultSession, a.ID())

	_, err = m.Get("x\x00")
	require.ErrorIs(t, err, ErrInvalidID)

	_, ok := m.Lookup("other")
	assert.False(t, ok)

	_, err = m.Get("other")
	require.NoError(t, err)
	ids := make([]string, 0, 2)
	for _, s := range m.List() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{models.DefaultSession, "other"}, ids)
}

func TestSession_TimerMutationsNotify(t *testing.T) {
	t.Parallel()

	m, _, ns := newTestManager(t, nil)
	s, err := m.Get("stage")
	require.NoError(t, err)

	st := s.Start(5)
	assert.Equal(t, 300, st.Duration)
	s.Pause()
	s.Resume()
	s.SetLanguage("de")
	_, skipped, err := s.Reset(context.Background())
	require.NoError(t, err)
	assert.True(t, skipped)

	n := 0
	for _, method := range drainMethods(ns) {
		if method == models.NotificationTimerChanged {
			n++
		}
	}
	assert.Equal(t, 5, n)
	assert.Equal(t, "de", s.Status().Language)
}

func TestSession_TimerChangedPayload(t *testing.T) {
	t.Parallel()

	m, _, ns := newTestManager(t, nil)
	s, err := m.Get("stage")
	require.NoError(t, err)
	s.Start(1)

	for {
		n := <-ns
		if n.Method != models.NotificationTimerChanged {
			continue
		}
		var payload models.TimerResponse
		require.NoError(t, json.Unmarshal(n.Params, &payload))
		assert.Equal(t, "stage", payload.Session)
		assert.Equal(t, 60, payload.Remaining)
		assert.True(t, payload.IsRunning)
		return
	}
}

func TestManager_RestoreFromStore(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewTestStateDB(t)
	ctx := context.Background()

	first, _, _ := newTestManager(t, db)
	s, err := first.Get("stage")
	require.NoError(t, err)
	s.Start(10)
	s.Pause()
	s.SetLanguage("fr")
	s.SetEnabled(true)
	_, err = s.Used.MarkUsed(ctx, "a.mp4")
	require.NoError(t, err)

	second, _, _ := newTestManager(t, db)
	require.NoError(t, second.Restore())

	restored, ok := second.Lookup("stage")
	require.True(t, ok)
	st := restored.Status()
	assert.True(t, st.IsRunning)
	assert.True(t, st.IsPaused)
	assert.Equal(t, 600, st.Remaining)
	assert.Equal(t, "fr", st.Language)
	assert.True(t, restored.Controller.Enabled())

	used, err := restored.Used.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp4"}, used)

	_, ok = second.Lookup(models.DefaultSession)
	assert.True(t, ok, "default session always exists after restore")
}

func TestManager_RestoreWithoutStore(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t, nil)
	require.NoError(t, m.Restore())

	ss := m.List()
	require.Len(t, ss, 1)
	assert.Equal(t, models.DefaultSession, ss[0].ID())
	assert.False(t, ss[0].Controller.Enabled())
}

func TestManager_Expire(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewTestStateDB(t)
	m, clock, _ := newTestManager(t, db)

	_, err := m.Get(models.DefaultSession)
	require.NoError(t, err)
	_, err = m.Get("idle")
	require.NoError(t, err)
	busy, err := m.Get("busy")
	require.NoError(t, err)
	busy.Start(120)
	_, err = m.Get("recent")
	require.NoError(t, err)

	clock.Advance(50 * time.Minute)
	_, err = m.Get("recent")
	require.NoError(t, err)
	clock.Advance(15 * time.Minute)

	assert.Equal(t, []string{"idle"}, m.Expire())

	_, ok := m.Lookup("idle")
	assert.False(t, ok)
	for _, id := range []string{models.DefaultSession, "busy", "recent"} {
		_, ok := m.Lookup(id)
		assert.True(t, ok, id)
	}

	stored, err := db.GetSessions()
	require.NoError(t, err)
	assert.NotContains(t, stored, "idle")
	assert.Contains(t, stored, "busy")
}

//nolint:paralleltest // goleak checks every goroutine in the process
func TestManager_TickLoopExtendsTimer(t *testing.T) {
	defer goleak.VerifyNone(t)

	db := testhelpers.NewTestStateDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	clock := clockwork.NewFakeClockAt(testEpoch)
	ns := make(chan models.Notification, 500)
	settings := timer.DefaultSettings()
	m := NewManager(ctx, Options{
		Clock:         clock,
		DB:            db,
		Library:       emptyLibrary{},
		Lookup:        noDurations,
		Notifications: ns,
		Timer:         settings,
		Entertainment: entertainment.DefaultSettings(),
	})

	runDone := make(chan struct{})
	go func() {
		m.Run()
		close(runDone)
	}()

	s, err := m.Get("stage")
	require.NoError(t, err)
	s.Start(0.05) // three seconds

	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()

	// the session ticker and the expiry ticker
	require.NoError(t, clock.BlockUntilContext(waitCtx, 2))

	var extended bool
	for i := 0; i < 60 && !extended; i++ {
		clock.Advance(time.Second)
		deadline := time.After(time.Second)
	drain:
		for {
			select {
			case n := <-ns:
				if n.Method == models.NotificationTimerExtended {
					var p models.TimerExtendedParams
					require.NoError(t, json.Unmarshal(n.Params, &p))
					assert.Equal(t, "stage", p.Session)
					assert.Equal(t, int(settings.ExtensionBlock/time.Second), p.Added)
					extended = true
					break drain
				}
			case <-deadline:
				break drain
			case <-time.After(20 * time.Millisecond):
				break drain
			}
		}
	}
	require.True(t, extended, "countdown extends itself after expiring")

	stored, ok, err := db.LoadTimer("stage")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3+int(settings.ExtensionBlock/time.Second), stored.Duration)

	cancel()
	<-runDone

	_, err = m.Get("late")
	require.ErrorIs(t, err, ErrStopped)
}

func TestManager_EnabledByDefault(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(ctx, Options{
		Clock:         clockwork.NewFakeClockAt(testEpoch),
		Library:       emptyLibrary{},
		Lookup:        noDurations,
		Timer:         timer.DefaultSettings(),
		Entertainment: entertainment.DefaultSettings(),
		Enabled:       true,
	})
	t.Cleanup(func() {
		cancel()
		m.shutdown()
	})

	require.NoError(t, m.Restore())
	def, ok := m.Lookup(models.DefaultSession)
	require.True(t, ok)
	assert.True(t, def.Controller.Enabled())

	s, err := m.Get("new")
	require.NoError(t, err)
	assert.True(t, s.Controller.Enabled())
}
