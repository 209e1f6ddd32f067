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

// Package fixtures holds sample data shared by tests.
package fixtures

import (
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/playlists"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
)

// SampleDurations are probe results in seconds keyed by file name. The
// 300 second walk-through uses the first three.
var SampleDurations = map[string]float64{
	"a.mp4":      60.4,
	"b.mp4":      90,
	"c.webm":     45.9,
	"long.mkv":   1800,
	"broken.mov": 0,
}

// SampleVideos returns the library entries matching SampleDurations, in
// library (path) order, without durations filled in.
func SampleVideos() []videos.Video {
	return []videos.Video{
		{Path: "a.mp4", Filename: "a.mp4"},
		{Path: "b.mp4", Filename: "b.mp4"},
		{Path: "broken.mov", Filename: "broken.mov"},
		{Path: "c.webm", Filename: "c.webm"},
		{Path: "long.mkv", Filename: "long.mkv"},
	}
}

// SampleFiles returns the file names of SampleVideos.
func SampleFiles() []string {
	return videos.Paths(SampleVideos())
}

// NewSamplePlaylist creates a playlist of three resolved videos.
func NewSamplePlaylist() *playlists.Playlist {
	return playlists.NewPlaylist([]videos.Video{
		{Path: "b.mp4", Filename: "b.mp4", DurationSeconds: 90},
		{Path: "a.mp4", Filename: "a.mp4", DurationSeconds: 60},
		{Path: "c.webm", Filename: "c.webm", DurationSeconds: 45},
	})
}

// NewEmptyPlaylist creates a playlist with no videos.
func NewEmptyPlaylist() *playlists.Playlist {
	return playlists.NewPlaylist(nil)
}
