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

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultFFProbePath  = "ffprobe"
	DefaultProbeTimeout = 10 * time.Second
	DefaultProbeWorkers = 4
)

var DefaultVideoExtensions = []string{".mp4", ".webm", ".mkv", ".mov", ".m4v"}

// Videos configures the local video library.
type Videos struct {
	ProbeWorkers *int     `toml:"probe_workers,omitempty"`
	Watch        *bool    `toml:"watch,omitempty"`
	Dir          string   `toml:"dir,omitempty"`
	FFProbePath  string   `toml:"ffprobe_path,omitempty"`
	ProbeTimeout string   `toml:"probe_timeout,omitempty"`
	Extensions   []string `toml:"extensions,omitempty"`
}

// VideosDir returns the library root. Relative paths are resolved against
// dataDir, and an unset value means dataDir/vids.
func (c *Instance) VideosDir(dataDir string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dir := c.vals.Videos.Dir
	if dir == "" {
		return filepath.Join(dataDir, VideosDir)
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(dataDir, dir)
}

func (c *Instance) SetVideosDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Videos.Dir = dir
}

// VideoExtensions returns the lower-cased file extensions, with leading dot,
// that are considered playable.
func (c *Instance) VideoExtensions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.vals.Videos.Extensions) == 0 {
		return DefaultVideoExtensions
	}
	exts := make([]string, 0, len(c.vals.Videos.Extensions))
	for _, ext := range c.vals.Videos.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}

func (c *Instance) FFProbePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Videos.FFProbePath == "" {
		return DefaultFFProbePath
	}
	return c.vals.Videos.FFProbePath
}

func (c *Instance) ProbeTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d := parseDurationOr(c.vals.Videos.ProbeTimeout, DefaultProbeTimeout)
	if d == 0 {
		return DefaultProbeTimeout
	}
	return d
}

func (c *Instance) ProbeWorkers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Videos.ProbeWorkers == nil || *c.vals.Videos.ProbeWorkers < 1 {
		return DefaultProbeWorkers
	}
	return *c.vals.Videos.ProbeWorkers
}

// WatchVideos returns whether new files in the library are picked up while
// the service runs. Enabled by default.
func (c *Instance) WatchVideos() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Videos.Watch == nil {
		return true
	}
	return *c.vals.Videos.Watch
}
