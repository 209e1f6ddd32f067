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

package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// SessionParams is embedded in every request that acts on a session.
type SessionParams struct {
	Session string `json:"session,omitempty" validate:"omitempty,max=64,printascii"`
}

// Minutes accepts a JSON number, a numeric string or null. Anything that
// can't be read as a number decodes to 0, which starts the default length.
type Minutes float64

func (m *Minutes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if perr != nil {
			f = 0
		}
		*m = Minutes(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*m = 0
		return nil //nolint:nilerr // unreadable lengths fall back to the default
	}
	*m = Minutes(f)
	return nil
}

type TimerStartParams struct {
	SessionParams
	Minutes Minutes `json:"minutes"`
}

type TimerLanguageParams struct {
	SessionParams
	Language string `json:"language" validate:"required,max=35,bcp47_language_tag"`
}

type EntertainmentEnabledParams struct {
	SessionParams
	Enabled *bool `json:"enabled" validate:"required"`
}

// MarkUsedParams names a video by its library path. The REST API also
// accepts the older videoPath field.
type MarkUsedParams struct {
	SessionParams
	Path      string `json:"path,omitempty" validate:"required_without=VideoPath,omitempty,videopath"`
	VideoPath string `json:"videoPath,omitempty" validate:"required_without=Path,omitempty,videopath"`
}

// VideoPathValue returns whichever path field was set.
func (p *MarkUsedParams) VideoPathValue() string {
	if p.Path != "" {
		return p.Path
	}
	return p.VideoPath
}

type OverlayEndedParams struct {
	SessionParams
	Path string `json:"path" validate:"required,videopath"`
}

type UpdateSettingsParams struct {
	DebugLogging         *bool    `json:"debugLogging"`
	EntertainmentEnabled *bool    `json:"entertainmentEnabled"`
	DiscoveryEnabled     *bool    `json:"discoveryEnabled"`
	TimerDefaultMinutes  *float64 `json:"timerDefaultMinutes" validate:"omitempty,gt=0"`
	TimerExtensionBlock  *string  `json:"timerExtensionBlock" validate:"omitempty,duration"`
	SessionTTL           *string  `json:"sessionTtl" validate:"omitempty,duration"`
}
