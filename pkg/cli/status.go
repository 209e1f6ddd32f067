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

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
)

// FormatRemaining renders seconds as m:ss, or h:mm:ss from an hour up.
func FormatRemaining(seconds int) string {
	seconds = max(seconds, 0)
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func FormatTimer(status *models.TimerResponse) string {
	session := status.Session
	if session == "" {
		session = models.DefaultSession
	}
	switch {
	case !status.IsRunning:
		return session + ": idle"
	case status.IsPaused:
		return fmt.Sprintf("%s: paused, %s remaining", session, FormatRemaining(status.Remaining))
	default:
		return fmt.Sprintf("%s: running, %s remaining", session, FormatRemaining(status.Remaining))
	}
}

func PrintVideos(ctx context.Context, api client.APIClient, out io.Writer, params string) error {
	resp, err := api.Call(ctx, models.MethodVideos, params)
	if err != nil {
		return fmt.Errorf("listing videos: %w", err)
	}
	var vs models.VideosResponse
	if err := json.Unmarshal([]byte(resp), &vs); err != nil {
		return fmt.Errorf("decoding videos: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PATH\tLENGTH\tUSED")
	for _, v := range vs.Videos {
		used := ""
		if v.Used {
			used = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Path, FormatRemaining(v.Duration), used)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing videos: %w", err)
	}
	return nil
}

func PrintSessions(ctx context.Context, api client.APIClient, out io.Writer) error {
	resp, err := api.Call(ctx, models.MethodSessions, "")
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	var ss models.SessionsResponse
	if err := json.Unmarshal([]byte(resp), &ss); err != nil {
		return fmt.Errorf("decoding sessions: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SESSION\tPHASE\tRUNNING\tLAST SEEN")
	for _, s := range ss.Sessions {
		running := "no"
		if s.Running {
			running = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			s.ID, s.Phase, running, s.LastSeen.Local().Format("2006-01-02 15:04:05"))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing sessions: %w", err)
	}
	return nil
}

// Follow prints every timer change of the client's session until ctx is
// cancelled.
func Follow(ctx context.Context, api client.APIClient, out io.Writer) error {
	for {
		params, err := api.WaitNotification(ctx, -1, models.NotificationTimerChanged)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, client.ErrRequestTimeout):
			continue
		case err != nil:
			return fmt.Errorf("waiting for timer changes: %w", err)
		}

		var status models.TimerResponse
		if err := json.Unmarshal([]byte(params), &status); err != nil {
			return fmt.Errorf("decoding timer change: %w", err)
		}
		_, _ = fmt.Fprintln(out, FormatTimer(&status))
	}
}
