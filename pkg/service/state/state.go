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

package state

import (
	"context"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// notificationBuffer gives headroom for bursts such as every session
// announcing its timer at once, without dropping notifications.
const notificationBuffer = 500

// State holds the runtime state of the countdown service that outlives any
// single session: its lifetime context, the notification queue every
// component sends to, and the progress of the initial library scan.
type State struct {
	ctx           context.Context
	clock         clockwork.Clock
	started       time.Time
	scanFinished  time.Time
	ctxCancelFunc context.CancelFunc
	Notifications chan<- models.Notification
	bootUUID      string
	mu            syncutil.RWMutex
	scanning      bool
	stopService   bool
}

func NewState(clock clockwork.Clock, bootUUID string) (state *State, notificationCh <-chan models.Notification) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ns := make(chan models.Notification, notificationBuffer)
	ctx, ctxCancelFunc := context.WithCancel(context.Background())
	return &State{
		ctx:           ctx,
		ctxCancelFunc: ctxCancelFunc,
		clock:         clock,
		started:       clock.Now(),
		Notifications: ns,
		bootUUID:      bootUUID,
	}, ns
}

func (s *State) GetContext() context.Context {
	return s.ctx
}

func (s *State) StopService() {
	s.mu.Lock()
	s.stopService = true
	s.mu.Unlock()
	s.ctxCancelFunc()
}

// Stopping reports whether StopService has been called.
func (s *State) Stopping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopService
}

func (s *State) BootUUID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bootUUID
}

// Uptime is how long the service has been running.
func (s *State) Uptime() time.Duration {
	return s.clock.Since(s.started)
}

// SetScanning records the start and end of the initial library scan.
func (s *State) SetScanning(scanning bool) {
	s.mu.Lock()
	s.scanning = scanning
	if !scanning {
		s.scanFinished = s.clock.Now()
	}
	elapsed := s.scanFinished.Sub(s.started)
	s.mu.Unlock()

	if !scanning {
		log.Info().Dur("sinceStart", elapsed).Msg("library scan finished")
	}
}

// Scanning reports whether the initial library scan is still running.
// Durations of unscanned videos are probed on demand meanwhile.
func (s *State) Scanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

// ScanFinished is when the initial library scan ended, zero until then.
func (s *State) ScanFinished() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanFinished
}
