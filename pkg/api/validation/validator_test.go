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

package validation

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/testing/helpers"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateVideoPath(t *testing.T) {
	t.Parallel()

	type params struct {
		Path string `validate:"videopath"`
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "empty skipped", path: ""},
		{name: "plain", path: "intro.mp4"},
		{name: "nested", path: "shows/ep1.mkv"},
		{name: "windows separators", path: `shows\ep1.mkv`},
		{name: "absolute", path: "/etc/passwd", wantErr: true},
		{name: "escapes root", path: "../secret.mp4", wantErr: true},
		{name: "dot", path: ".", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := DefaultValidator.Validate(&params{Path: tt.path})
			if tt.wantErr {
				var verr *Error
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "videopath", verr.Fields[0].Tag)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateDuration(t *testing.T) {
	t.Parallel()

	type params struct {
		TTL string `validate:"duration"`
	}

	require.NoError(t, DefaultValidator.Validate(&params{TTL: "6h"}))
	require.NoError(t, DefaultValidator.Validate(&params{}))
	require.Error(t, DefaultValidator.Validate(&params{TTL: "soon"}))
}

func TestValidateInLibrary(t *testing.T) {
	t.Parallel()

	fs := helpers.NewMemoryFS()
	require.NoError(t, fs.CreateVideoLibrary("/vids", "a.mp4", "shows/b.webm"))
	lib := videos.NewLibrary(fs.Fs, "/vids", config.DefaultVideoExtensions)

	type params struct {
		Path string `validate:"invideos"`
	}

	vctx := NewContext(lib)
	ctx := context.Background()
	require.NoError(t, DefaultValidator.ValidateCtx(ctx, &params{Path: "a.mp4"}, vctx))
	require.NoError(t, DefaultValidator.ValidateCtx(ctx, &params{Path: "shows/b.webm"}, vctx))

	err := DefaultValidator.ValidateCtx(ctx, &params{Path: "missing.mp4"}, vctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `video "missing.mp4" not found`)

	require.NoError(t, DefaultValidator.ValidateCtx(ctx, &params{Path: "missing.mp4"}, nil),
		"no library in context skips the check")
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	// "é" as e + combining acute accent
	decomposed := "cafe\u0301.mp4"
	got, err := NormalizePath(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9.mp4", got)

	got, err = NormalizePath("shows//./ep1.mkv")
	require.NoError(t, err)
	assert.Equal(t, "shows/ep1.mkv", got)

	_, err = NormalizePath("../x.mp4")
	require.ErrorIs(t, err, videos.ErrInvalidPath)
}

func TestValidateAndUnmarshal_MarkUsed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  string
		want    string
		wantErr error
	}{
		{name: "path", params: `{"path":"a.mp4"}`, want: "a.mp4"},
		{name: "videoPath alias", params: `{"videoPath":"b.mp4"}`, want: "b.mp4"},
		{name: "path wins", params: `{"path":"a.mp4","videoPath":"b.mp4"}`, want: "a.mp4"},
		{name: "missing params", params: ``, wantErr: ErrMissingParams},
		{name: "bad json", params: `{"path":`, wantErr: ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var p models.MarkUsedParams
			err := ValidateAndUnmarshal(json.RawMessage(tt.params), &p)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.VideoPathValue())
		})
	}
}

func TestValidateAndUnmarshal_FieldErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  func(json.RawMessage) error
		params  string
		message string
	}{
		{
			name: "mark used without path",
			target: func(raw json.RawMessage) error {
				var p models.MarkUsedParams
				return ValidateAndUnmarshal(raw, &p)
			},
			params:  `{}`,
			message: "path is required when videopath is not set",
		},
		{
			name: "enabled missing",
			target: func(raw json.RawMessage) error {
				var p models.EntertainmentEnabledParams
				return ValidateAndUnmarshal(raw, &p)
			},
			params:  `{"session":"x"}`,
			message: "enabled is required",
		},
		{
			name: "bad language",
			target: func(raw json.RawMessage) error {
				var p models.TimerLanguageParams
				return ValidateAndUnmarshal(raw, &p)
			},
			params:  `{"language":"not a tag"}`,
			message: "language must be a BCP 47 language tag",
		},
		{
			name: "session not ascii",
			target: func(raw json.RawMessage) error {
				var p models.TimerStartParams
				return ValidateAndUnmarshal(raw, &p)
			},
			params:  `{"session":"bühne","minutes":5}`,
			message: "session must be printable ASCII",
		},
		{
			name: "overlay path escapes",
			target: func(raw json.RawMessage) error {
				var p models.OverlayEndedParams
				return ValidateAndUnmarshal(raw, &p)
			},
			params:  `{"path":"../../x.mp4"}`,
			message: "not a video path inside the library",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.target(json.RawMessage(tt.params))
			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Error(), tt.message)
		})
	}
}

func TestValidateAndUnmarshal_MinutesNeverRejected(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`{"minutes":"abc"}`, `{"minutes":null}`, `{"minutes":-3}`, `{}`} {
		var p models.TimerStartParams
		require.NoError(t, ValidateAndUnmarshal(json.RawMessage(raw), &p), raw)
	}
}
