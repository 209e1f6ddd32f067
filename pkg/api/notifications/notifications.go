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

// Package notifications builds and queues the JSON-RPC notifications sent
// to connected clients and publishers.
package notifications

import (
	"encoding/json"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/rs/zerolog/log"
)

// send marshals the payload and queues the notification without blocking.
// A full queue drops the notification; callers must never stall on a slow
// client.
func send(ns chan<- models.Notification, method string, payload any) {
	if ns == nil {
		return
	}

	var params json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("marshalling notification params")
			return
		}
		params = data
	}

	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification queue full, dropping notification")
	}
}

func TimerChanged(ns chan<- models.Notification, payload models.TimerResponse) {
	send(ns, models.NotificationTimerChanged, payload)
}

func TimerExtended(ns chan<- models.Notification, payload models.TimerExtendedParams) {
	send(ns, models.NotificationTimerExtended, payload)
}

func PhaseChanged(ns chan<- models.Notification, payload models.PhaseChangedParams) {
	send(ns, models.NotificationEntertainmentPhase, payload)
}

func UsedVideos(ns chan<- models.Notification, payload models.UsedVideosResponse) {
	send(ns, models.NotificationEntertainmentUsed, payload)
}

func EntertainmentToggled(ns chan<- models.Notification, payload models.EntertainmentToggledParams) {
	send(ns, models.NotificationEntertainmentToggle, payload)
}

func OverlayEnlarge(ns chan<- models.Notification, session string) {
	send(ns, models.NotificationOverlayEnlarge, models.OverlayParams{Session: session})
}

func OverlayShrink(ns chan<- models.Notification, session string) {
	send(ns, models.NotificationOverlayShrink, models.OverlayParams{Session: session})
}

func OverlayPlay(ns chan<- models.Notification, payload models.OverlayPlayParams) {
	send(ns, models.NotificationOverlayPlay, payload)
}

func OverlayFadeOut(ns chan<- models.Notification, payload models.OverlayFadeOutParams) {
	send(ns, models.NotificationOverlayFadeOut, payload)
}

func VideosAdded(ns chan<- models.Notification, payload models.VideosAddedParams) {
	send(ns, models.NotificationVideosAdded, payload)
}
