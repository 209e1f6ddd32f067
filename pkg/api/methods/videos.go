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

package methods

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
	"github.com/rs/zerolog/log"
)

var ErrNoLibrary = errors.New("video library not available")

func videoResponse(v videos.Video, used bool) models.VideoResponse {
	return models.VideoResponse{
		Path:     v.Path,
		Filename: v.Filename,
		Duration: v.DurationSeconds,
		Used:     used,
	}
}

// ListVideos returns every video in the library with its cached duration
// and whether the session has played it.
func ListVideos(env requests.RequestEnv) (models.VideosResponse, error) { //nolint:gocritic // env passed by value like handlers
	resp := models.VideosResponse{Videos: make([]models.VideoResponse, 0)}
	if env.Library == nil {
		return resp, ErrNoLibrary
	}

	vs, err := env.Library.List()
	if err != nil {
		return resp, fmt.Errorf("listing videos: %w", err)
	}
	if env.Cache != nil {
		vs = env.Cache.Annotate(vs)
	}

	for _, v := range vs {
		used := env.Session != nil && env.Session.Used.IsUsed(v.Path)
		resp.Videos = append(resp.Videos, videoResponse(v, used))
	}
	return resp, nil
}

func HandleVideos(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received videos request")
	resp, err := ListVideos(env)
	if err != nil {
		log.Error().Err(err).Msg("error listing videos")
		return nil, err
	}
	return resp, nil
}
