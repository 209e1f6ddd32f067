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

package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsClockReliable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		time time.Time
		name string
		want bool
	}{
		{name: "first reliable instant", time: time.Date(MinReliableYear, 1, 1, 0, 0, 0, 0, time.UTC), want: true},
		{name: "event day", time: time.Date(2026, 5, 1, 19, 30, 0, 0, time.UTC), want: true},
		{name: "far future", time: time.Date(2040, 6, 15, 9, 30, 0, 0, time.UTC), want: true},
		{
			name: "last unreliable instant",
			time: time.Date(MinReliableYear-1, 12, 31, 23, 59, 59, 0, time.UTC),
			want: false,
		},
		{name: "booted without rtc", time: time.Unix(3600, 0).UTC(), want: false},
		{name: "zero time", time: time.Time{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsClockReliable(tt.time))
		})
	}
}
