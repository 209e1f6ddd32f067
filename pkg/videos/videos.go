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

// Package videos discovers playable media in the video library and
// resolves how long each file plays for.
package videos

import (
	"path"
)

// Video is one file in the library. Path is relative to the library root,
// uses forward slashes and uniquely identifies the video. A zero duration
// means the file has not been resolved or could not be played.
type Video struct {
	Path            string `json:"path"`
	Filename        string `json:"filename"`
	DurationSeconds int    `json:"durationSeconds"`
}

func newVideo(relPath string) Video {
	return Video{
		Path:     relPath,
		Filename: path.Base(relPath),
	}
}

// Paths returns the paths of the given videos in order.
func Paths(vs []Video) []string {
	paths := make([]string, len(vs))
	for i, v := range vs {
		paths[i] = v.Path
	}
	return paths
}

// TotalDuration sums the durations of the given videos.
func TotalDuration(vs []Video) int {
	total := 0
	for _, v := range vs {
		total += v.DurationSeconds
	}
	return total
}
