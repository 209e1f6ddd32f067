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
	"context"
	"errors"
	"runtime"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingParams = validation.ErrMissingParams
	ErrInvalidParams = validation.ErrInvalidParams
	ErrNoSession     = errors.New("no session for request")
	ErrNotLocal      = errors.New("only available to local clients")
)

// NoContent is returned by methods that have nothing to report.
type NoContent struct{}

func HandleVersion(_ requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received version request")
	return models.VersionResponse{
		Version:  config.AppVersion,
		Platform: runtime.GOOS,
	}, nil
}

// parseOptional decodes params if any were sent. Methods whose params are
// all optional accept a bare call.
func parseOptional[T any](env requests.RequestEnv, dest *T) error { //nolint:gocritic // env passed by value like handlers
	if len(env.Params) == 0 {
		return nil
	}
	if err := validation.ValidateAndUnmarshalCtx(
		envContext(env), env.Params, dest, validation.NewContext(env.Library),
	); err != nil {
		return err //nolint:wrapcheck // validation errors are shown to clients as is
	}
	return nil
}

func envContext(env requests.RequestEnv) context.Context { //nolint:gocritic // env passed by value like handlers
	if env.Context == nil {
		return context.Background()
	}
	return env.Context
}

func requireSession(env requests.RequestEnv) error { //nolint:gocritic // env passed by value like handlers
	if env.Session == nil {
		return ErrNoSession
	}
	return nil
}
