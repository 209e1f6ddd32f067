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
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/rs/zerolog/log"
)

// HandleLogsDownload returns the current log file, base64 encoded. Only
// clients on the same host may download it.
func HandleLogsDownload(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received logs download request")

	if !env.IsLocal {
		return nil, ErrNotLocal
	}

	logFilePath := filepath.Join(env.LogDir, config.LogFile)
	data, err := os.ReadFile(logFilePath) //nolint:gosec // path built from the log directory
	if err != nil {
		log.Error().Err(err).Str("path", logFilePath).Msg("failed to read log file")
		return nil, fmt.Errorf("reading log file: %w", err)
	}

	return models.LogDownloadResponse{
		Filename: config.LogFile,
		Size:     len(data),
		Content:  base64.StdEncoding.EncodeToString(data),
	}, nil
}
