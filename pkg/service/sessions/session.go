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
	"fmt"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/database"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/entertainment"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/overlay"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/tracker"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/timer"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Session is one independent countdown with its own scheduler and display
// surface. Timer mutations go through the session so they are persisted and
// announced.
type Session struct {
	lastSeen   time.Time
	clock      clockwork.Clock
	db         database.StateDBI
	ns         chan<- models.Notification
	Timer      *timer.Engine
	Used       *tracker.Tracker
	Overlay    *overlay.Overlay
	Controller *entertainment.Controller
	cancel     context.CancelFunc
	done       chan struct{}
	id         string
	mu         syncutil.Mutex
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.clock.Now()
	s.mu.Unlock()
}

func (s *Session) Start(minutes float64) timer.State {
	st := s.Timer.Start(minutes)
	s.changed(st)
	return st
}

func (s *Session) Pause() timer.State {
	st := s.Timer.Pause()
	s.changed(st)
	return st
}

func (s *Session) Resume() timer.State {
	st := s.Timer.Resume()
	s.changed(st)
	return st
}

// Reset returns the countdown to idle and then resets the scheduler, which
// stops any playing video.
func (s *Session) Reset(ctx context.Context) (timer.State, bool, error) {
	st, skipped := s.Timer.Reset()
	s.changed(st)
	if err := s.Controller.Reset(ctx); err != nil {
		return st, skipped, fmt.Errorf("resetting entertainment: %w", err)
	}
	return st, skipped, nil
}

func (s *Session) SetLanguage(language string) timer.State {
	st := s.Timer.SetLanguage(language)
	s.changed(st)
	return st
}

func (s *Session) SetEnabled(enabled bool) {
	s.Controller.SetEnabled(enabled)
	s.saveMeta()
}

// Status returns the countdown with the remaining time brought up to date.
func (s *Session) Status() timer.State {
	return s.Timer.Status()
}

func (s *Session) changed(st timer.State) {
	s.persist(st)
	notifications.TimerChanged(s.ns, models.TimerResponse{Session: s.id, State: st})
}

func (s *Session) persist(st timer.State) {
	if s.db == nil {
		return
	}
	if err := s.db.SaveTimer(s.id, st); err != nil {
		log.Error().Err(err).Str("session", s.id).Msg("error saving timer state")
	}
}

func (s *Session) saveMeta() {
	if s.db == nil {
		return
	}
	meta := database.SessionMeta{
		LastSeen:             s.LastSeen(),
		EntertainmentEnabled: s.Controller.Enabled(),
	}
	if err := s.db.SaveSessionMeta(s.id, meta); err != nil {
		log.Error().Err(err).Str("session", s.id).Msg("error saving session metadata")
	}
}

// run drives the timer and scheduler until ctx ends. Each scheduler tick
// runs on its own goroutine so a playing video never holds up the timer;
// the controller drops ticks that overlap.
func (s *Session) run(ctx context.Context, interval time.Duration) {
	defer close(s.done)

	var ticks sync.WaitGroup
	defer ticks.Wait()

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("session", s.id).Msg("session tasks stopped")
			return
		case <-ticker.Chan():
			s.tick()
			ticks.Go(func() {
				s.Controller.Tick(ctx)
			})
		}
	}
}

func (s *Session) tick() {
	st, res := s.Timer.Tick()
	switch res {
	case timer.TickExpired:
		s.changed(st)
	case timer.TickExtended:
		s.changed(st)
		notifications.TimerExtended(s.ns, models.TimerExtendedParams{
			Session: s.id,
			Added:   st.Remaining,
		})
	case timer.TickSkipped, timer.TickGrace, timer.TickUpdated:
	}
}

func (s *Session) stop() {
	s.cancel()
	<-s.done
}
