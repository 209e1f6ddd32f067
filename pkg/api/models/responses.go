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

package models

import (
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/timer"
)

// TimerResponse is a timer snapshot tagged with its session.
type TimerResponse struct {
	Session string `json:"session"`
	timer.State
}

type TimerResetResponse struct {
	TimerResponse
	WasSkipped bool `json:"wasSkipped"`
}

type VideoResponse struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Duration int    `json:"duration"`
	Used     bool   `json:"used"`
}

type VideosResponse struct {
	Videos []VideoResponse `json:"videos"`
}

// PlaylistResponse is the scheduled playlist. Current is the video under
// the cursor and Next the one after it.
type PlaylistResponse struct {
	Current          *VideoResponse  `json:"current,omitempty"`
	Next             *VideoResponse  `json:"next,omitempty"`
	Items            []VideoResponse `json:"items"`
	Index            int             `json:"index"`
	RemainingSeconds int             `json:"remainingSeconds"`
}

type EntertainmentStatusResponse struct {
	PhaseStarted *time.Time       `json:"phaseStarted,omitempty"`
	Session      string           `json:"session"`
	Phase        string           `json:"phase"`
	Playlist     PlaylistResponse `json:"playlist"`
	UsedVideos   []string         `json:"usedVideos"`
	Enabled      bool             `json:"enabled"`
	OverlayLarge bool             `json:"overlayLarge"`
}

// PublicStateResponse is the unauthenticated view display surfaces poll.
type PublicStateResponse struct {
	Session      string   `json:"session"`
	Phase        string   `json:"phase"`
	UsedVideos   []string `json:"usedVideos"`
	Enabled      bool     `json:"enabled"`
	OverlayLarge bool     `json:"overlayLarge"`
}

type UsedVideosResponse struct {
	Session    string   `json:"session"`
	UsedVideos []string `json:"usedVideos"`
}

type SessionResponse struct {
	LastSeen time.Time `json:"lastSeen"`
	ID       string    `json:"id"`
	Phase    string    `json:"phase"`
	Running  bool      `json:"running"`
}

type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type VersionResponse struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

// OKResponse mirrors the plain acknowledgement of the REST API.
type OKResponse struct {
	OK bool `json:"ok"`
}

// Notification payloads.

type TimerExtendedParams struct {
	Session string `json:"session"`
	Added   int    `json:"added"`
}

type PhaseChangedParams struct {
	Session  string `json:"session"`
	Phase    string `json:"phase"`
	Previous string `json:"previous"`
}

type OverlayParams struct {
	Session string `json:"session"`
}

type OverlayPlayParams struct {
	Session  string `json:"session"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	Duration int    `json:"duration"`
}

type OverlayFadeOutParams struct {
	Session  string `json:"session"`
	Duration int64  `json:"durationMs"`
}

type EntertainmentToggledParams struct {
	Session string `json:"session"`
	Enabled bool   `json:"enabled"`
}

type VideosAddedParams struct {
	Videos []VideoResponse `json:"videos"`
}

type SettingsResponse struct {
	TimerExtensionBlock  string  `json:"timerExtensionBlock"`
	SessionTTL           string  `json:"sessionTtl"`
	TimerDefaultMinutes  float64 `json:"timerDefaultMinutes"`
	DebugLogging         bool    `json:"debugLogging"`
	EntertainmentEnabled bool    `json:"entertainmentEnabled"`
	DiscoveryEnabled     bool    `json:"discoveryEnabled"`
}

type LogDownloadResponse struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Size     int    `json:"size"`
}
