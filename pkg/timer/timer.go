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

// Package timer implements the countdown engine: a start/pause/resume/reset
// state machine that keeps ticking past zero and extends itself if nobody
// resets it.
package timer

import (
	"math"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// State is a snapshot of one countdown. While the timer is running and not
// paused EndTime is authoritative, otherwise Remaining is.
type State struct {
	EndTime        *time.Time `json:"endTime"`
	AutoExtendTime *time.Time `json:"autoExtendTime"`
	LastUpdateTime *time.Time `json:"lastUpdateTime"`
	Language       string     `json:"language,omitempty"`
	Duration       int        `json:"duration"`
	Remaining      int        `json:"remaining"`
	IsRunning      bool       `json:"isRunning"`
	IsPaused       bool       `json:"isPaused"`
}

// Active reports whether the countdown is running and not paused.
func (s State) Active() bool {
	return s.IsRunning && !s.IsPaused
}

// Expired reports whether a running countdown has reached zero.
func (s State) Expired() bool {
	return s.IsRunning && s.Remaining <= 0
}

func (s State) clone() State {
	s.EndTime = copyTime(s.EndTime)
	s.AutoExtendTime = copyTime(s.AutoExtendTime)
	s.LastUpdateTime = copyTime(s.LastUpdateTime)
	return s
}

// TickResult describes what a call to Tick did.
type TickResult int

const (
	// TickSkipped means the timer is idle or paused.
	TickSkipped TickResult = iota
	// TickGrace means the last write was too recent to recompute.
	TickGrace
	// TickUpdated means remaining was recomputed from the end time.
	TickUpdated
	// TickExpired means the timer just reached zero and an extension was
	// scheduled.
	TickExpired
	// TickExtended means a scheduled extension was applied.
	TickExtended
)

func (r TickResult) String() string {
	switch r {
	case TickSkipped:
		return "skipped"
	case TickGrace:
		return "grace"
	case TickUpdated:
		return "updated"
	case TickExpired:
		return "expired"
	case TickExtended:
		return "extended"
	default:
		return "unknown"
	}
}

// Settings holds the engine's tuning values.
type Settings struct {
	DefaultMinutes  float64
	GraceWindow     time.Duration
	AutoExtendDelay time.Duration
	ExtensionBlock  time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		DefaultMinutes:  config.DefaultStartMinutes,
		GraceWindow:     config.DefaultGraceWindow,
		AutoExtendDelay: config.DefaultAutoExtendDelay,
		ExtensionBlock:  config.DefaultExtensionBlock,
	}
}

func SettingsFromConfig(cfg *config.Instance) Settings {
	return Settings{
		DefaultMinutes:  cfg.TimerDefaultMinutes(),
		GraceWindow:     cfg.TimerGraceWindow(),
		AutoExtendDelay: cfg.TimerAutoExtendDelay(),
		ExtensionBlock:  cfg.TimerExtensionBlock(),
	}
}

// Engine owns a single countdown. All methods are safe for concurrent use
// and return a copy of the state after the operation.
type Engine struct {
	clock    clockwork.Clock
	settings Settings
	state    State
	mu       syncutil.Mutex
}

//nolint:gocritic // settings copied on construction
func NewEngine(clock clockwork.Clock, settings Settings) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if settings.DefaultMinutes <= 0 {
		settings.DefaultMinutes = config.DefaultStartMinutes
	}
	return &Engine{
		clock:    clock,
		settings: settings,
	}
}

// Start begins a new countdown of the given length. Lengths that are not a
// positive, finite number of whole seconds fall back to the default.
func (e *Engine) Start(minutes float64) State {
	seconds := toSeconds(minutes)
	if seconds <= 0 {
		log.Debug().Float64("minutes", minutes).Msg("timer: invalid start length, using default")
		seconds = toSeconds(e.settings.DefaultMinutes)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	end := now.Add(time.Duration(seconds) * time.Second)

	e.state.Duration = seconds
	e.state.Remaining = seconds
	e.state.EndTime = &end
	e.state.IsRunning = true
	e.state.IsPaused = false
	e.state.AutoExtendTime = nil
	e.state.LastUpdateTime = &now

	log.Info().Int("seconds", seconds).Msg("timer: started")
	return e.state.clone()
}

// Pause freezes the remaining time. It does nothing unless the countdown
// is running and not already paused.
func (e *Engine) Pause() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Active() {
		return e.state.clone()
	}

	e.state.Remaining = e.remainingLocked(e.clock.Now())
	e.state.IsPaused = true
	e.state.EndTime = nil
	e.state.LastUpdateTime = nil
	e.state.AutoExtendTime = nil

	log.Info().Int("remaining", e.state.Remaining).Msg("timer: paused")
	return e.state.clone()
}

// Resume continues a paused countdown from its frozen remaining time.
func (e *Engine) Resume() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.IsPaused {
		return e.state.clone()
	}

	now := e.clock.Now()
	end := now.Add(time.Duration(e.state.Remaining) * time.Second)
	e.state.EndTime = &end
	e.state.IsPaused = false
	e.state.LastUpdateTime = &now

	log.Info().Int("remaining", e.state.Remaining).Msg("timer: resumed")
	return e.state.clone()
}

// Reset returns the engine to idle, keeping only the language. wasSkipped
// is true when the countdown was running with time left.
func (e *Engine) Reset() (state State, wasSkipped bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasSkipped = e.state.IsRunning && e.remainingLocked(e.clock.Now()) > 0
	e.state = State{Language: e.state.Language}

	log.Info().Bool("skipped", wasSkipped).Msg("timer: reset")
	return e.state.clone(), wasSkipped
}

// Tick advances the countdown. It recomputes the remaining time, schedules
// an extension once the countdown reaches zero and applies the extension
// when it falls due.
func (e *Engine) Tick() (State, TickResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Active() {
		return e.state.clone(), TickSkipped
	}

	now := e.clock.Now()
	if e.inGraceLocked(now) {
		return e.state.clone(), TickGrace
	}

	if e.state.AutoExtendTime != nil && !now.Before(*e.state.AutoExtendTime) {
		e.extendLocked(now)
		return e.state.clone(), TickExtended
	}

	e.state.Remaining = e.secondsUntil(e.state.EndTime, now)
	if e.state.Remaining <= 0 && e.state.AutoExtendTime == nil {
		at := now.Add(e.settings.AutoExtendDelay)
		e.state.AutoExtendTime = &at
		log.Info().Time("at", at).Msg("timer: reached zero, extension scheduled")
		return e.state.clone(), TickExpired
	}

	return e.state.clone(), TickUpdated
}

// Status returns the current state. For an active countdown the remaining
// time is derived the same way Tick would, without changing the engine.
func (e *Engine) Status() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state.clone()
	s.Remaining = e.remainingLocked(e.clock.Now())
	return s
}

// SetLanguage sets the display locale, which survives Reset.
func (e *Engine) SetLanguage(language string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Language = language
	return e.state.clone()
}

// Restore replaces the engine state with a previously saved snapshot.
// Broken flag combinations are repaired, and an active countdown is
// restored paused when the system clock cannot be trusted.
//
//nolint:gocritic // snapshot copied in
func (e *Engine) Restore(s State) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s = s.clone()
	now := e.clock.Now()

	if !s.IsRunning {
		s = State{Language: s.Language}
	}
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	if s.Active() && (s.EndTime == nil || !helpers.IsClockReliable(now)) {
		log.Warn().Msg("timer: cannot trust saved end time, restoring paused")
		s.IsPaused = true
	}
	if s.IsPaused {
		s.EndTime = nil
		s.LastUpdateTime = nil
		s.AutoExtendTime = nil
	}

	e.state = s
	log.Info().
		Bool("running", s.IsRunning).
		Bool("paused", s.IsPaused).
		Msg("timer: state restored")
	return e.state.clone()
}

func (e *Engine) extendLocked(now time.Time) {
	block := int(e.settings.ExtensionBlock / time.Second)
	end := now.Add(time.Duration(block) * time.Second)

	e.state.Duration += block
	e.state.Remaining = block
	e.state.EndTime = &end
	e.state.AutoExtendTime = nil
	e.state.LastUpdateTime = &now

	log.Info().Int("seconds", block).Int("duration", e.state.Duration).Msg("timer: auto-extended")
}

func (e *Engine) inGraceLocked(now time.Time) bool {
	return e.state.LastUpdateTime != nil &&
		now.Sub(*e.state.LastUpdateTime) < e.settings.GraceWindow
}

func (e *Engine) remainingLocked(now time.Time) int {
	if !e.state.Active() || e.inGraceLocked(now) {
		return e.state.Remaining
	}
	return e.secondsUntil(e.state.EndTime, now)
}

func (*Engine) secondsUntil(end *time.Time, now time.Time) int {
	if end == nil {
		return 0
	}
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

func toSeconds(minutes float64) int {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return 0
	}
	s := math.Floor(minutes * 60)
	if s > math.MaxInt32 {
		return 0
	}
	return int(s)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
