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

// Package playlists holds the ordered video list played during one
// countdown and the selector that builds it.
package playlists

import "github.com/ZaparooProject/zaparoo-countdown/pkg/videos"

// Playlist is an ordered, fixed list of videos with a cursor. Index points
// at the next video to play and equals len(Items) once every video has
// been played. Operations return a new value and never modify Items.
type Playlist struct {
	Items []videos.Video `json:"items"`
	Index int            `json:"index"`
}

func NewPlaylist(items []videos.Video) *Playlist {
	return &Playlist{
		Items: items,
		Index: 0,
	}
}

// Advance moves the cursor past the current video. It stops at the end.
func Advance(p Playlist) *Playlist {
	idx := p.Index + 1
	if idx > len(p.Items) {
		idx = len(p.Items)
	}
	return &Playlist{
		Items: p.Items,
		Index: idx,
	}
}

// Current returns the video under the cursor.
func (p *Playlist) Current() (videos.Video, bool) {
	if p == nil || p.Index < 0 || p.Index >= len(p.Items) {
		return videos.Video{}, false
	}
	return p.Items[p.Index], true
}

// Done reports whether every video has been played.
func (p *Playlist) Done() bool {
	return p == nil || p.Index >= len(p.Items)
}

func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// Remaining returns the videos not yet played.
func (p *Playlist) Remaining() []videos.Video {
	if p.Done() {
		return nil
	}
	return p.Items[p.Index:]
}

// Peek returns the video after the current one.
func (p *Playlist) Peek() (videos.Video, bool) {
	if p == nil || p.Index+1 >= len(p.Items) {
		return videos.Video{}, false
	}
	return p.Items[p.Index+1], true
}
