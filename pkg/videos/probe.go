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

package videos

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/command"
)

var ErrNoDuration = errors.New("no duration found")

// Prober reads the playable length of a media file in seconds.
type Prober interface {
	Probe(ctx context.Context, file string) (float64, error)
}

// FFProbe reads the container duration with ffprobe.
type FFProbe struct {
	Exec command.Executor
	Path string
}

func NewFFProbe(exec command.Executor, ffprobePath string) *FFProbe {
	if exec == nil {
		exec = &command.RealExecutor{}
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFProbe{Exec: exec, Path: ffprobePath}
}

func (p *FFProbe) Probe(ctx context.Context, file string) (float64, error) {
	out, err := p.Exec.Output(ctx, p.Path,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		file,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseDuration(out)
}

func parseDuration(out []byte) (float64, error) {
	val := strings.TrimSpace(string(out))
	if i := strings.IndexByte(val, '\n'); i >= 0 {
		val = strings.TrimSpace(val[:i])
	}
	if val == "" || val == "N/A" {
		return 0, ErrNoDuration
	}

	secs, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", val, err)
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
		return 0, fmt.Errorf("%w: invalid duration %q", ErrNoDuration, val)
	}
	return secs, nil
}
