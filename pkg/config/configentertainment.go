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

const (
	DefaultIntro           = 10 * time.Second
	DefaultOutro           = 10 * time.Second
	DefaultTransition      = 10 * time.Second
	DefaultTransitionBreak = 5 * time.Second
	DefaultSafetyMargin    = 10 * time.Second
	DefaultSlotEstimate    = 30 * time.Second
	DefaultFadeDuration    = 5 * time.Second
	DefaultPlaybackGrace   = 15 * time.Second
)

// Entertainment configures video playback during a countdown.
type Entertainment struct {
	Enabled         *bool  `toml:"enabled,omitempty"`
	Intro           string `toml:"intro,omitempty"`
	Outro           string `toml:"outro,omitempty"`
	Transition      string `toml:"transition,omitempty"`
	TransitionBreak string `toml:"transition_break,omitempty"`
	SafetyMargin    string `toml:"safety_margin,omitempty"`
	SlotEstimate    string `toml:"slot_estimate,omitempty"`
	FadeDuration    string `toml:"fade_duration,omitempty"`
	PlaybackGrace   string `toml:"playback_grace,omitempty"`
}

// EntertainmentEnabled returns whether new sessions start with video
// playback switched on. Disabled by default.
func (c *Instance) EntertainmentEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Entertainment.Enabled == nil {
		return false
	}
	return *c.vals.Entertainment.Enabled
}

func (c *Instance) SetEntertainmentEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Entertainment.Enabled = &enabled
}

// EntertainmentIntro is the lead-in shown before the first video.
func (c *Instance) EntertainmentIntro() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Entertainment.Intro, DefaultIntro)
}

// EntertainmentOutro is the lead-out reserved at the end of the countdown.
func (c *Instance) EntertainmentOutro() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Entertainment.Outro, DefaultOutro)
}

// EntertainmentTransition is the minimum gap between two videos.
func (c *Instance) EntertainmentTransition() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Entertainment.Transition, DefaultTransition)
}

// EntertainmentTransitionBreak is the part of a transition during which the
// overlay is shown enlarged.
func (c *Instance) EntertainmentTransitionBreak() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Entertainment.TransitionBreak, DefaultTransitionBreak)
}

// EntertainmentSafetyMargin is the extra headroom a video must leave for the
// transition that follows it.
func (c *Instance) EntertainmentSafetyMargin() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Entertainment.SafetyMargin, DefaultSafetyMargin)
}

// EntertainmentSlotEstimate is the average slot length used to estimate how
// many transitions a playlist will need.
func (c *Instance) EntertainmentSlotEstimate() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d := parseDurationOr(c.vals.Entertainment.SlotEstimate, DefaultSlotEstimate)
	if d < time.Second {
		return DefaultSlotEstimate
	}
	return d
}

// EntertainmentFadeDuration is how long an overlay fade-out takes.
func (c *Instance) EntertainmentFadeDuration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Entertainment.FadeDuration, DefaultFadeDuration)
}

// EntertainmentPlaybackGrace is added to a video's length to decide when to
// give up waiting for a display to report the end of playback.
func (c *Instance) EntertainmentPlaybackGrace() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Entertainment.PlaybackGrace, DefaultPlaybackGrace)
}
