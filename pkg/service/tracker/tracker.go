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

// Package tracker remembers which videos a session has already played so
// the scheduler never repeats one until the set is reset.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/database"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var ErrEmptyPath = errors.New("empty video path")

// Tracker is the used-video set of one session. The set lives in memory
// and, when a store is given, is written through to it. A nil store keeps
// the set for the life of the process only.
type Tracker struct {
	clock   clockwork.Clock
	db      database.StateDBI
	ns      chan<- models.Notification
	used    map[string]struct{}
	session string
	order   []string
	loaded  bool
	mu      syncutil.Mutex
}

func New(
	session string,
	db database.StateDBI,
	clock clockwork.Clock,
	ns chan<- models.Notification,
) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{
		clock:   clock,
		db:      db,
		ns:      ns,
		session: session,
		used:    make(map[string]struct{}),
	}
}

// Load reads the persisted set. It is called lazily by the other methods
// and only needs calling directly to surface a store error early.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadLocked()
}

func (t *Tracker) loadLocked() error {
	if t.loaded {
		return nil
	}
	if t.db == nil {
		t.loaded = true
		return nil
	}

	stored, err := t.db.GetUsedVideos(t.session)
	if err != nil {
		return fmt.Errorf("loading used videos: %w", err)
	}
	for _, u := range stored {
		if _, ok := t.used[u.Path]; ok {
			continue
		}
		t.used[u.Path] = struct{}{}
		t.order = append(t.order, u.Path)
	}
	t.loaded = true
	log.Debug().Str("session", t.session).Int("count", len(t.order)).Msg("tracker: loaded used videos")
	return nil
}

// MarkUsed adds a video to the set. Marking a video twice is a no-op and
// returns false. The store is written before memory, so on error the set is
// unchanged.
func (t *Tracker) MarkUsed(ctx context.Context, videoPath string) (bool, error) {
	if videoPath == "" {
		return false, ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("mark used: %w", err)
	}

	t.mu.Lock()
	if err := t.loadLocked(); err != nil {
		t.mu.Unlock()
		return false, err
	}
	if _, ok := t.used[videoPath]; ok {
		t.mu.Unlock()
		return false, nil
	}
	if t.db != nil {
		if _, err := t.db.AddUsedVideo(t.session, videoPath, t.clock.Now()); err != nil {
			t.mu.Unlock()
			return false, fmt.Errorf("persisting used video: %w", err)
		}
	}
	t.used[videoPath] = struct{}{}
	t.order = append(t.order, videoPath)
	list := t.listLocked()
	t.mu.Unlock()

	log.Info().Str("session", t.session).Str("path", videoPath).Msg("tracker: marked video used")
	notifications.UsedVideos(t.ns, models.UsedVideosResponse{
		Session:    t.session,
		UsedVideos: list,
	})
	return true, nil
}

// Reset empties the set.
func (t *Tracker) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reset used: %w", err)
	}

	t.mu.Lock()
	if t.db != nil {
		if err := t.db.ClearUsedVideos(t.session); err != nil {
			t.mu.Unlock()
			return fmt.Errorf("clearing used videos: %w", err)
		}
	}
	changed := len(t.order) > 0 || !t.loaded
	t.used = make(map[string]struct{})
	t.order = nil
	t.loaded = true
	t.mu.Unlock()

	log.Info().Str("session", t.session).Msg("tracker: reset used videos")
	if changed {
		notifications.UsedVideos(t.ns, models.UsedVideosResponse{
			Session:    t.session,
			UsedVideos: []string{},
		})
	}
	return nil
}

// IsUsed reports whether the video is in the set. A set that failed to
// load reports false.
func (t *Tracker) IsUsed(videoPath string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.loadLocked(); err != nil {
		log.Warn().Err(err).Str("session", t.session).Msg("tracker: used set unavailable")
		return false
	}
	_, ok := t.used[videoPath]
	return ok
}

// List returns the used paths in the order they were marked.
func (t *Tracker) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list used: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.loadLocked(); err != nil {
		return nil, err
	}
	return t.listLocked(), nil
}

func (t *Tracker) listLocked() []string {
	list := make([]string, len(t.order))
	copy(list, t.order)
	return list
}

// Filter returns the videos whose path is not in used.
func Filter(vs []videos.Video, used map[string]struct{}) []videos.Video {
	out := make([]videos.Video, 0, len(vs))
	for _, v := range vs {
		if _, ok := used[v.Path]; ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Set converts a list of paths into a lookup set.
func Set(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}
