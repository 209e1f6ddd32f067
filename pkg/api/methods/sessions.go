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
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models/requests"
	"github.com/rs/zerolog/log"
)

func HandleSessions(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received sessions request")

	resp := models.SessionsResponse{Sessions: make([]models.SessionResponse, 0)}
	if env.Sessions == nil {
		return resp, nil
	}
	for _, s := range env.Sessions.List() {
		resp.Sessions = append(resp.Sessions, models.SessionResponse{
			ID:       s.ID(),
			LastSeen: s.LastSeen(),
			Phase:    string(s.Controller.Phase()),
			Running:  s.Status().IsRunning,
		})
	}
	return resp, nil
}
