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

// Package entertainment schedules video playback inside a running
// countdown. A Controller is ticked about once a second and walks through
// intro, playing, transition and outro phases, packing videos from the
// library into the time the countdown leaves free.
package entertainment

import (
	"context"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/playlists"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/timer"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseIntro      Phase = "intro"
	PhasePlaying    Phase = "playing"
	PhaseTransition Phase = "transition"
	PhaseOutro      Phase = "outro"
)

// Overlay is the display surface the controller drives. Play blocks until
// the video has finished and FadeOut until the fade is complete; both
// return early when ctx ends.
type Overlay interface {
	Enlarge()
	Shrink()
	Play(ctx context.Context, video videos.Video) error
	FadeOut(ctx context.Context) error
}

// TimerSource is the read-only view of the session's countdown.
type TimerSource interface {
	Status() timer.State
}

// UsedVideos is the session's used-video set.
type UsedVideos interface {
	List(ctx context.Context) ([]string, error)
	MarkUsed(ctx context.Context, videoPath string) (bool, error)
	Reset(ctx context.Context) error
}

// VideoSource lists every candidate video in library order.
type VideoSource interface {
	List() ([]videos.Video, error)
}

// Settings holds the phase lengths and reservations.
type Settings struct {
	// Intro is the lead-in before the first video.
	Intro time.Duration
	// Outro is reserved at the end of the countdown.
	Outro time.Duration
	// Transition is the gap between two videos.
	Transition time.Duration
	// TransitionBreak is the start of a transition, shown enlarged.
	TransitionBreak time.Duration
	// SafetyMargin is extra headroom a video must leave after it.
	SafetyMargin time.Duration
	// SlotEstimate is the average video plus gap length, used to guess
	// how many transitions a playlist needs.
	SlotEstimate time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Intro:           config.DefaultIntro,
		Outro:           config.DefaultOutro,
		Transition:      config.DefaultTransition,
		TransitionBreak: config.DefaultTransitionBreak,
		SafetyMargin:    config.DefaultSafetyMargin,
		SlotEstimate:    config.DefaultSlotEstimate,
	}
}

func SettingsFromConfig(cfg *config.Instance) Settings {
	return Settings{
		Intro:           cfg.EntertainmentIntro(),
		Outro:           cfg.EntertainmentOutro(),
		Transition:      cfg.EntertainmentTransition(),
		TransitionBreak: cfg.EntertainmentTransitionBreak(),
		SafetyMargin:    cfg.EntertainmentSafetyMargin(),
		SlotEstimate:    cfg.EntertainmentSlotEstimate(),
	}
}

// Status is a point-in-time view of a controller. PhaseStarted is zero
// while idle.
type Status struct {
	PhaseStarted time.Time
	Phase        Phase
	Playlist     playlists.Playlist
	Enabled      bool
	OverlayLarge bool
}

// VideoBudget returns the number of seconds of video that fit in a
// countdown of durationSeconds once the intro, outro and estimated
// transitions are taken out.
//
//nolint:gocritic // settings are a small value type
func VideoBudget(durationSeconds int, s Settings) int {
	available := durationSeconds - seconds(s.Intro) - seconds(s.Outro)
	slot := seconds(s.SlotEstimate)
	if slot < 1 {
		slot = 1
	}
	estimated := max(1, floorDiv(available, slot))
	return available - estimated*seconds(s.Transition)
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

// floorDiv rounds towards negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
