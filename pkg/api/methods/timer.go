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
	"github.com/ZaparooProject/zaparoo-countdown/pkg/timer"
	"github.com/rs/zerolog/log"
)

func timerResponse(env requests.RequestEnv, st timer.State) models.TimerResponse { //nolint:gocritic // env passed by value like handlers
	return models.TimerResponse{Session: env.Session.ID(), State: st}
}

// HandleTimerStart starts the countdown. A missing, unreadable or
// non-positive length falls back to the configured default.
func HandleTimerStart(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if err := requireSession(env); err != nil {
		return nil, err
	}
	var params models.TimerStartParams
	if err := parseOptional(env, &params); err != nil {
		return nil, err
	}
	log.Info().Str("session", env.Session.ID()).Float64("minutes", float64(params.Minutes)).
		Msg("received timer start request")
	return timerResponse(env, env.Session.Start(float64(params.Minutes))), nil
}

func HandleTimerPause(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if err := requireSession(env); err != nil {
		return nil, err
	}
	log.Info().Str("session", env.Session.ID()).Msg("received timer pause request")
	return timerResponse(env, env.Session.Pause()), nil
}

func HandleTimerResume(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if err := requireSession(env); err != nil {
		return nil, err
	}
	log.Info().Str("session", env.Session.ID()).Msg("received timer resume request")
	return timerResponse(env, env.Session.Resume()), nil
}

// HandleTimerReset returns the countdown to idle and stops entertainment.
// wasSkipped reports a reset of a countdown that had not finished.
func HandleTimerReset(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if err := requireSession(env); err != nil {
		return nil, err
	}
	log.Info().Str("session", env.Session.ID()).Msg("received timer reset request")
	st, skipped, err := env.Session.Reset(envContext(env))
	if err != nil {
		return nil, fmt.Errorf("resetting session: %w", err)
	}
	return models.TimerResetResponse{
		TimerResponse: timerResponse(env, st),
		WasSkipped:    skipped,
	}, nil
}

func HandleTimerStatus(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if err := requireSession(env); err != nil {
		return nil, err
	}
	return timerResponse(env, env.Session.Status()), nil
}

func HandleTimerLanguage(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if err := requireSession(env); err != nil {
		return nil, err
	}
	var params models.TimerLanguageParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err //nolint:wrapcheck // validation errors are shown to clients as is
	}
	log.Info().Str("session", env.Session.ID()).Str("language", params.Language).
		Msg("received timer language request")
	return timerResponse(env, env.Session.SetLanguage(params.Language)), nil
}
