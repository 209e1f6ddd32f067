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

package playlists

import (
	"sort"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
)

// DurationLookup returns the cached duration of a video and whether it is
// known.
type DurationLookup func(path string) (int, bool)

// SelectVideos packs videos into a time budget. Candidates without a known
// positive duration are dropped, the rest are tried longest first and each
// one that still fits is taken. Fewer, longer videos mean fewer gaps
// between them, so the result is not an optimal fill. Ties keep their
// candidate order, and the total never exceeds targetSeconds.
func SelectVideos(targetSeconds int, candidates []videos.Video, lookup DurationLookup) []videos.Video {
	if targetSeconds <= 0 {
		return nil
	}

	usable := make([]videos.Video, 0, len(candidates))
	for _, v := range candidates {
		d, ok := lookup(v.Path)
		if !ok || d <= 0 {
			continue
		}
		v.DurationSeconds = d
		usable = append(usable, v)
	}
	if len(usable) == 0 {
		return nil
	}

	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].DurationSeconds > usable[j].DurationSeconds
	})

	budget := targetSeconds
	var selected []videos.Video
	for _, v := range usable {
		if budget <= 0 {
			break
		}
		if v.DurationSeconds <= budget {
			selected = append(selected, v)
			budget -= v.DurationSeconds
		}
	}
	return selected
}
