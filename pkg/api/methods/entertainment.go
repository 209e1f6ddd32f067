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
	"fmt"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
	"github.com/rs/zerolog/log"
)

// EntertainmentStatus reports the scheduler of the request's session.
func EntertainmentStatus(env requests.RequestEnv) (models.EntertainmentStatusResponse, error) { //nolint:gocritic,lll // env passed by value like handlers
	if err := requireSession(env); err != nil {
		return models.EntertainmentStatusResponse{}, err
	}

	used, err := env.Session.Used.List(envContext(env))
	if err != nil {
		return models.EntertainmentStatusResponse{}, fmt.Errorf("listing used videos: %w", err)
	}

	st := env.Session.Controller.Status()
	items := make([]models.VideoResponse, 0, st.Playlist.Len())
	for _, v := range st.Playlist.Items {
		items = append(items, videoResponse(v, env.Session.Used.IsUsed(v.Path)))
	}

	resp := models.EntertainmentStatusResponse{
		Session:      env.Session.ID(),
		Phase:        string(st.Phase),
		Enabled:      st.Enabled,
		OverlayLarge: st.OverlayLarge,
		UsedVideos:   used,
		Playlist: models.PlaylistResponse{
			Items:            items,
			Index:            st.Playlist.Index,
			RemainingSeconds: videos.TotalDuration(st.Playlist.Remaining()),
		},
	}
	if cur, ok := st.Playlist.Current(); ok {
		v := videoResponse(cur, env.Session.Used.IsUsed(cur.Path))
		resp.Playlist.Current = &v
	}
	if next, ok := st.Playlist.Peek(); ok {
		v := videoResponse(next, env.Session.Used.IsUsed(next.Path))
		resp.Playlist.Next = &v
	}
	if !st.PhaseStarted.IsZero() {
		started := st.PhaseStarted
		resp.PhaseStarted = &started
	}
	return resp, nil
}

// PublicState is the reduced view polled by display surfaces.
func PublicState(env requests.RequestEnv) (models.PublicStateResponse, error) { //nolint:gocritic // env passed by value like handlers
	status, err := EntertainmentStatus(env)
	if err != nil {
		return models.PublicStateResponse{}, err
	}
	return models.PublicStateResponse{
		Session:      status.Session,
		Phase:        status.Phase,
		UsedVideos:   status.UsedVideos,
		Enabled:      status.Enabled,
		OverlayLarge: status.OverlayLarge,
	}, nil
}

func HandleEntertainmentStatus(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return EntertainmentStatus(env)
}

func HandleEntertainmentEnabled(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if err := requireSession(env); err != nil {
		return nil, err
	}
	var params models.EntertainmentEnabledParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err //nolint:wrapcheck // validation errors are shown to clients as is
	}
	log.Info().Str("session", env.Session.ID()).Bool("enabled", *params.Enabled).
		Msg("received entertainment enabled request")
	env.Session.SetEnabled(*params.Enabled)
	return EntertainmentStatus(env)
}

// HandleMarkUsed adds a video to the session's used set. Marking a video
// twice is not an error.
func HandleMarkUsed(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if err := requireSession(env); err != nil {
		return nil, err
	}
	var params models.MarkUsedParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err //nolint:wrapcheck // validation errors are shown to clients as is
	}
	p, err := validation.NormalizePath(params.VideoPathValue())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	ctx := envContext(env)
	added, err := env.Session.Used.MarkUsed(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("marking video used: %w", err)
	}
	log.Info().Str("session", env.Session.ID()).Str("path", p).Bool("added", added).
		Msg("received mark used request")

	used, err := env.Session.Used.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing used videos: %w", err)
	}
	return models.UsedVideosResponse{Session: env.Session.ID(), UsedVideos: used}, nil
}

func HandleResetUsed(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if err := requireSession(env); err != nil {
		return nil, err
	}
	log.Info().Str("session", env.Session.ID()).Msg("received reset used request")
	if err := env.Session.Used.Reset(envContext(env)); err != nil {
		return nil, fmt.Errorf("resetting used videos: %w", err)
	}
	return models.UsedVideosResponse{Session: env.Session.ID(), UsedVideos: []string{}}, nil
}

// HandleOverlayEnded is sent by a display when the video it was told to
// play has finished.
func HandleOverlayEnded(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if err := requireSession(env); err != nil {
		return nil, err
	}
	var params models.OverlayEndedParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err //nolint:wrapcheck // validation errors are shown to clients as is
	}
	p, err := validation.NormalizePath(params.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	ended := env.Session.Overlay.Ended(p)
	log.Debug().Str("session", env.Session.ID()).Str("path", p).Bool("matched", ended).
		Msg("received overlay ended")
	return models.OKResponse{OK: ended}, nil
}
