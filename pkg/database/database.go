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

package database

import (
	"errors"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/timer"
)

var ErrNotOpen = errors.New("database is not open")

// Database is a portable interface for the stores passed to services and
// API handlers.
type Database struct {
	StateDB StateDBI
}

// SessionMeta is the per-session data kept next to the timer snapshot.
type SessionMeta struct {
	LastSeen             time.Time `json:"lastSeen"`
	EntertainmentEnabled bool      `json:"entertainmentEnabled"`
}

// UsedVideo is one entry of a session's used set, in the order it was
// marked.
type UsedVideo struct {
	Added time.Time
	Path  string
	Seq   uint64
}

// StateDBI persists countdown state between restarts: one timer snapshot,
// one used-video set and one metadata record per session.
type StateDBI interface {
	Close() error
	GetDBPath() string
	SaveTimer(session string, state timer.State) error
	// LoadTimer returns false when the session has no saved timer.
	LoadTimer(session string) (timer.State, bool, error)
	// AddUsedVideo returns false when the path was already in the set.
	AddUsedVideo(session, videoPath string, added time.Time) (bool, error)
	GetUsedVideos(session string) ([]UsedVideo, error)
	ClearUsedVideos(session string) error
	SaveSessionMeta(session string, meta SessionMeta) error
	// GetSessions returns the metadata of every stored session keyed by ID.
	GetSessions() (map[string]SessionMeta, error)
	DeleteSession(session string) error
}
