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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Instance{}
	assert.InDelta(t, 20.0, cfg.TimerDefaultMinutes(), 0.0001)
	assert.Equal(t, 2*time.Second, cfg.TimerGraceWindow())
	assert.Equal(t, 30*time.Second, cfg.TimerAutoExtendDelay())
	assert.Equal(t, 300*time.Second, cfg.TimerExtensionBlock())
	assert.Equal(t, time.Second, cfg.TimerTickInterval())
}

func TestTimerExtensionBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "unset", value: "", want: DefaultExtensionBlock},
		{name: "custom", value: "10m", want: 10 * time.Minute},
		{name: "invalid falls back", value: "long", want: DefaultExtensionBlock},
		{name: "sub-second falls back", value: "500ms", want: DefaultExtensionBlock},
		{name: "negative falls back", value: "-5m", want: DefaultExtensionBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &Instance{vals: Values{Timer: Timer{ExtensionBlock: tt.value}}}
			assert.Equal(t, tt.want, cfg.TimerExtensionBlock())
		})
	}
}

func TestSetTimerDefaultMinutes(t *testing.T) {
	t.Parallel()

	cfg := &Instance{}
	cfg.SetTimerDefaultMinutes(5)
	assert.InDelta(t, 5.0, cfg.TimerDefaultMinutes(), 0.0001)

	cfg.SetTimerDefaultMinutes(0)
	assert.InDelta(t, float64(DefaultStartMinutes), cfg.TimerDefaultMinutes(), 0.0001)
}

func TestSetTimerExtensionBlock(t *testing.T) {
	t.Parallel()

	cfg := &Instance{}
	require.Error(t, cfg.SetTimerExtensionBlock("nope"))
	assert.Equal(t, DefaultExtensionBlock, cfg.TimerExtensionBlock())

	require.NoError(t, cfg.SetTimerExtensionBlock("1m"))
	assert.Equal(t, time.Minute, cfg.TimerExtensionBlock())
}

func TestTimerTickInterval_ZeroFallsBack(t *testing.T) {
	t.Parallel()

	cfg := &Instance{vals: Values{Timer: Timer{TickInterval: "0s"}}}
	assert.Equal(t, DefaultTickInterval, cfg.TimerTickInterval())
}
