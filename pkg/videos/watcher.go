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

package videos

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/syncutil"
	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultSettleTime is how long a new file must go without writes before it
// is probed, so copies in progress are not probed half written.
const DefaultSettleTime = 2 * time.Second

// Watcher probes videos as they are added to the library while the service
// runs. Removed files stay in the cache.
type Watcher struct {
	clock   clockwork.Clock
	lib     *Library
	cache   *Cache
	onAdded func(Video)
	pending map[string]clockwork.Timer
	settle  time.Duration
	mu      syncutil.Mutex
}

// NewWatcher creates a watcher. onAdded, if set, is called after a new
// video has been resolved.
func NewWatcher(
	lib *Library,
	cache *Cache,
	clock clockwork.Clock,
	onAdded func(Video),
) *Watcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Watcher{
		clock:   clock,
		lib:     lib,
		cache:   cache,
		onAdded: onAdded,
		pending: make(map[string]clockwork.Timer),
		settle:  DefaultSettleTime,
	}
}

// Run watches the library root until ctx is cancelled. The root must be on
// the real filesystem.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("videos: error closing file watcher")
		}
		w.stopPending()
	}()

	if err := w.addTree(watcher, w.lib.Root()); err != nil {
		return err
	}
	log.Info().Str("root", w.lib.Root()).Msg("videos: watching library")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if addErr := w.addTree(watcher, event.Name); addErr != nil {
						log.Warn().Err(addErr).Msg("videos: failed to watch new directory")
					}
					w.scanDir(ctx, event.Name)
					continue
				}
			}
			w.handle(ctx, event)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(watchErr).Msg("videos: error in watcher")
		}
	}
}

// handle schedules a probe for created or written video files, restarting
// the settle timer on every write.
func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") || !w.lib.IsVideo(event.Name) {
		return
	}

	rel, err := w.lib.Rel(event.Name)
	if err != nil {
		return
	}
	if _, ok := w.cache.Duration(rel); ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[rel]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[rel] = w.clock.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, rel)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.resolve(ctx, rel)
	})
}

func (w *Watcher) resolve(ctx context.Context, rel string) {
	d := w.cache.Resolve(ctx, rel)
	log.Info().Str("path", rel).Int("seconds", d).Msg("videos: new video added")
	if w.onAdded != nil {
		v := newVideo(rel)
		v.DurationSeconds = d
		w.onAdded(v)
	}
}

// scanDir picks up videos that were already inside a directory when it was
// moved into the library.
func (w *Watcher) scanDir(ctx context.Context, dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		w.handle(ctx, fsnotify.Event{Name: p, Op: fsnotify.Create})
		return nil
	})
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(p); addErr != nil {
			return fmt.Errorf("failed to watch %s: %w", p, addErr)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to watch video library: %w", err)
	}
	return nil
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for rel, t := range w.pending {
		t.Stop()
		delete(w.pending, rel)
	}
}
