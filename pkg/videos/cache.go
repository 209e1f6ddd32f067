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
	"math"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Cache remembers the probed duration of each video for the life of the
// process. Entries are never invalidated: a video that failed to probe
// stays at zero and is never selected.
type Cache struct {
	prober    Prober
	lib       *Library
	durations map[string]int
	flight    singleflight.Group
	timeout   time.Duration
	workers   int
	mu        syncutil.RWMutex
}

func NewCache(lib *Library, prober Prober, timeout time.Duration, workers int) *Cache {
	if workers < 1 {
		workers = 1
	}
	return &Cache{
		prober:    prober,
		lib:       lib,
		durations: make(map[string]int),
		timeout:   timeout,
		workers:   workers,
	}
}

// Duration returns the cached duration of a video and whether it has been
// resolved.
func (c *Cache) Duration(videoPath string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.durations[videoPath]
	return d, ok
}

// Len returns the number of resolved videos.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.durations)
}

// Resolve returns the duration of a video in whole seconds, probing it the
// first time it is asked for. Probe failures and timeouts are cached as
// zero. If ctx itself is cancelled the result is not cached.
func (c *Cache) Resolve(ctx context.Context, videoPath string) int {
	if d, ok := c.Duration(videoPath); ok {
		return d
	}

	v, _, _ := c.flight.Do(videoPath, func() (any, error) {
		if d, ok := c.Duration(videoPath); ok {
			return d, nil
		}

		d, err := c.probe(ctx, videoPath)
		if err != nil && ctx.Err() != nil {
			log.Debug().Str("path", videoPath).Msg("videos: probe cancelled")
			return 0, nil
		}
		if err != nil {
			log.Warn().Err(err).Str("path", videoPath).Msg("videos: failed to resolve duration, excluding")
		}

		c.mu.Lock()
		if existing, ok := c.durations[videoPath]; ok {
			d = existing
		} else {
			c.durations[videoPath] = d
		}
		c.mu.Unlock()

		log.Debug().Str("path", videoPath).Int("seconds", d).Msg("videos: duration resolved")
		return d, nil
	})

	d, _ := v.(int)
	return d
}

func (c *Cache) probe(ctx context.Context, videoPath string) (int, error) {
	if c.prober == nil {
		return 0, errors.New("no prober configured")
	}

	abs, err := c.lib.Abs(videoPath)
	if err != nil {
		return 0, err
	}

	pctx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	secs, err := c.prober.Probe(pctx, abs)
	if err != nil {
		//nolint:wrapcheck // already descriptive
		return 0, err
	}
	return int(math.Floor(secs)), nil
}

// ScanAll resolves every video not yet in the cache, probing several at
// once. It returns early only when ctx is cancelled.
func (c *Cache) ScanAll(ctx context.Context, vs []Video) error {
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	probed := 0
	for _, v := range vs {
		if _, ok := c.Duration(v.Path); ok {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		probed++
		g.Go(func() error {
			c.Resolve(gctx, v.Path)
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck // context error returned as is
	}

	log.Info().
		Int("videos", len(vs)).
		Int("probed", probed).
		Dur("took", time.Since(start)).
		Msg("videos: library scan complete")
	return nil
}

// Annotate returns a copy of vs with cached durations filled in. Unresolved
// videos keep a zero duration.
func (c *Cache) Annotate(vs []Video) []Video {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Video, len(vs))
	for i, v := range vs {
		v.DurationSeconds = c.durations[v.Path]
		out[i] = v
	}
	return out
}
