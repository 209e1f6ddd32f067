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

import "encoding/json"

const (
	NotificationTimerChanged        = "timer.changed"
	NotificationTimerExtended       = "timer.extended"
	NotificationEntertainmentPhase  = "entertainment.phase"
	NotificationEntertainmentUsed   = "entertainment.used"
	NotificationOverlayEnlarge      = "overlay.enlarge"
	NotificationOverlayShrink       = "overlay.shrink"
	NotificationOverlayPlay         = "overlay.play"
	NotificationOverlayFadeOut      = "overlay.fadeout"
	NotificationVideosAdded         = "videos.added"
	NotificationEntertainmentToggle = "entertainment.toggled"
)

const (
	MethodTimerStart             = "timer.start"
	MethodTimerPause             = "timer.pause"
	MethodTimerResume            = "timer.resume"
	MethodTimerReset             = "timer.reset"
	MethodTimerStatus            = "timer.status"
	MethodTimerLanguage          = "timer.language"
	MethodVideos                 = "videos"
	MethodEntertainmentStatus    = "entertainment.status"
	MethodEntertainmentEnabled   = "entertainment.enabled"
	MethodEntertainmentUsedMark  = "entertainment.used.mark"
	MethodEntertainmentUsedReset = "entertainment.used.reset"
	MethodOverlayEnded           = "overlay.ended"
	MethodSessions               = "sessions"
	MethodSettings               = "settings"
	MethodSettingsUpdate         = "settings.update"
	MethodSettingsReload         = "settings.reload"
	MethodSettingsLogsDownload   = "settings.logs.download"
	MethodVersion                = "version"
)

// DefaultSession is used when a request names no session.
const DefaultSession = "default"

type Notification struct {
	Method string
	Params json.RawMessage
}

type RequestObject struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *RPCID          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ResponseObject struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// ResponseErrorObject exists for sending errors, so we can omit result from
// the response, but so nil responses are still returned when using the main
// ResponseObject.
type ResponseErrorObject struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
	Error   *ErrorObject `json:"error"`
}
