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

package config

import "time"

// Timer tuning values. The defaults were tuned against a live show format
// and are the only values the countdown has been validated with.
const (
	DefaultStartMinutes    = 20
	DefaultGraceWindow     = 2 * time.Second
	DefaultAutoExtendDelay = 30 * time.Second
	DefaultExtensionBlock  = 300 * time.Second
	DefaultTickInterval    = time.Second
)

// Timer configures the countdown engine.
type Timer struct {
	DefaultMinutes  *float64 `toml:"default_minutes,omitempty"`
	GraceWindow     string   `toml:"grace_window,omitempty"`
	AutoExtendDelay string   `toml:"auto_extend_delay,omitempty"`
	ExtensionBlock  string   `toml:"extension_block,omitempty"`
	TickInterval    string   `toml:"tick_interval,omitempty"`
}

// TimerDefaultMinutes is the countdown length used when a start request has
// no usable duration.
func (c *Instance) TimerDefaultMinutes() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Timer.DefaultMinutes == nil || *c.vals.Timer.DefaultMinutes <= 0 {
		return DefaultStartMinutes
	}
	return *c.vals.Timer.DefaultMinutes
}

// TimerGraceWindow is how long after a state write tick recomputation is
// suppressed.
func (c *Instance) TimerGraceWindow() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Timer.GraceWindow, DefaultGraceWindow)
}

// TimerAutoExtendDelay is how long an expired, running timer waits before it
// is extended.
func (c *Instance) TimerAutoExtendDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Timer.AutoExtendDelay, DefaultAutoExtendDelay)
}

// TimerExtensionBlock is the amount of time added by one auto-extension.
func (c *Instance) TimerExtensionBlock() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d := parseDurationOr(c.vals.Timer.ExtensionBlock, DefaultExtensionBlock)
	if d < time.Second {
		return DefaultExtensionBlock
	}
	return d
}

// TimerTickInterval is the period of the per-session tick tasks.
func (c *Instance) TimerTickInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d := parseDurationOr(c.vals.Timer.TickInterval, DefaultTickInterval)
	if d <= 0 {
		return DefaultTickInterval
	}
	return d
}

// SetTimerDefaultMinutes sets the fallback start length. Pass 0 to restore
// the built-in default.
func (c *Instance) SetTimerDefaultMinutes(minutes float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if minutes <= 0 {
		c.vals.Timer.DefaultMinutes = nil
		return
	}
	c.vals.Timer.DefaultMinutes = &minutes
}

// SetTimerExtensionBlock sets the auto-extension length (e.g. "5m").
func (c *Instance) SetTimerExtensionBlock(duration string) error {
	if err := validateDuration("extension block", duration); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Timer.ExtensionBlock = duration
	return nil
}
