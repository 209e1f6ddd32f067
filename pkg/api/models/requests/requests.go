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

package requests

import (
	"context"
	"encoding/json"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/sessions"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
)

// RequestEnv is everything a method handler may touch. Session is already
// resolved from the request, falling back to the default session.
type RequestEnv struct {
	Context  context.Context
	Config   *config.Instance
	Sessions *sessions.Manager
	Session  *sessions.Session
	Library  *videos.Library
	Cache    *videos.Cache
	LogDir   string
	Params   json.RawMessage
	ID       models.RPCID
	IsLocal  bool
}
