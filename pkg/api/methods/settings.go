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
	"strconv"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/validation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func HandleSettings(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received settings request")

	return models.SettingsResponse{
		DebugLogging:         env.Config.DebugLogging(),
		EntertainmentEnabled: env.Config.EntertainmentEnabled(),
		DiscoveryEnabled:     env.Config.DiscoveryEnabled(),
		TimerDefaultMinutes:  env.Config.TimerDefaultMinutes(),
		TimerExtensionBlock:  env.Config.TimerExtensionBlock().String(),
		SessionTTL:           env.Config.SessionTTL().String(),
	}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleSettingsReload(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received settings reload request")

	if err := env.Config.Load(); err != nil {
		log.Error().Err(err).Msg("error loading settings")
		return nil, errors.New("error loading settings")
	}
	applyLogLevel(env.Config.DebugLogging())
	return NoContent{}, nil
}

// HandleSettingsUpdate writes the given settings to the config file. Timer
// and session settings apply to countdowns started afterwards; the
// discovery switch applies on the next start of the service.
//
//nolint:gocritic // single-use parameter in API handler
func HandleSettingsUpdate(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received settings update request")

	var params models.UpdateSettingsParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err //nolint:wrapcheck // validation errors are shown to clients as is
	}

	if params.DebugLogging != nil {
		log.Info().Bool("debugLogging", *params.DebugLogging).Msg("update")
		env.Config.SetDebugLogging(*params.DebugLogging)
		applyLogLevel(*params.DebugLogging)
	}

	if params.EntertainmentEnabled != nil {
		log.Info().Bool("entertainmentEnabled", *params.EntertainmentEnabled).Msg("update")
		env.Config.SetEntertainmentEnabled(*params.EntertainmentEnabled)
	}

	if params.DiscoveryEnabled != nil {
		log.Info().Bool("discoveryEnabled", *params.DiscoveryEnabled).Msg("update")
		env.Config.SetDiscoveryEnabled(*params.DiscoveryEnabled)
	}

	if params.TimerDefaultMinutes != nil {
		log.Info().Str("timerDefaultMinutes",
			strconv.FormatFloat(*params.TimerDefaultMinutes, 'f', -1, 64)).Msg("update")
		env.Config.SetTimerDefaultMinutes(*params.TimerDefaultMinutes)
	}

	if params.TimerExtensionBlock != nil {
		log.Info().Str("timerExtensionBlock", *params.TimerExtensionBlock).Msg("update")
		if err := env.Config.SetTimerExtensionBlock(*params.TimerExtensionBlock); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
	}

	if params.SessionTTL != nil {
		log.Info().Str("sessionTtl", *params.SessionTTL).Msg("update")
		if err := env.Config.SetSessionTTL(*params.SessionTTL); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
	}

	if err := env.Config.Save(); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return NoContent{}, nil
}

func applyLogLevel(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
