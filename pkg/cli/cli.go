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

// Package cli implements the command line front end shared by every build
// of the countdown: flags that control a running service over its API, and
// the setup of config, logging and error reporting.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ZaparooProject/zaparoo-countdown/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingValue = errors.New("flag requires a value")
	ErrInvalidValue = errors.New("invalid flag value")
)

type Flags struct {
	fs            *flag.FlagSet
	Start         *string
	Language      *string
	Entertainment *string
	Mark          *string
	API           *string
	Session       *string
	Pause         *bool
	Resume        *bool
	Reset         *bool
	Status        *bool
	Videos        *bool
	Sessions      *bool
	Follow        *bool
	Reload        *bool
	Version       *bool
	Daemon        *bool
}

// SetupFlags defines the common CLI flags on fs, or on the process flag set
// when fs is nil.
func SetupFlags(fs *flag.FlagSet) *Flags {
	if fs == nil {
		fs = flag.CommandLine
	}
	return &Flags{
		fs: fs,
		Start: fs.String(
			"start",
			"",
			"start the countdown for the given minutes, 0 for the configured default",
		),
		Pause:  fs.Bool("pause", false, "pause the countdown"),
		Resume: fs.Bool("resume", false, "resume a paused countdown"),
		Reset:  fs.Bool("reset", false, "stop the countdown and return to idle"),
		Status: fs.Bool("status", false, "print the countdown status"),
		Language: fs.String(
			"language",
			"",
			"set the display language of the countdown (BCP 47 tag)",
		),
		Entertainment: fs.String(
			"entertainment",
			"",
			"turn the entertainment scheduler on or off",
		),
		Mark:     fs.String("mark", "", "mark a video as played in this session"),
		Videos:   fs.Bool("videos", false, "list the video library"),
		Sessions: fs.Bool("sessions", false, "list active sessions"),
		Follow:   fs.Bool("follow", false, "print timer changes until interrupted"),
		API: fs.String(
			"api",
			"",
			"send method and params to API and print response",
		),
		Session: fs.String(
			"session",
			"",
			"session to control, the default session when empty",
		),
		Reload:  fs.Bool("reload", false, "reload config from disk"),
		Version: fs.Bool("version", false, "print version and exit"),
		Daemon:  fs.Bool("daemon", false, "run the service in the foreground"),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses args and handles flags that need no environment. It returns
// true when the process should exit.
func (f *Flags) Pre(args []string, out io.Writer) (bool, error) {
	if err := f.fs.Parse(args); err != nil {
		return true, fmt.Errorf("parsing flags: %w", err)
	}

	if *f.Version {
		_, _ = fmt.Fprintf(out, "%s v%s\n", config.AppName, config.AppVersion)
		return true, nil
	}
	return false, nil
}

func (f *Flags) session() string {
	return strings.TrimSpace(*f.Session)
}

// withSession adds the selected session to a params object so it also
// reaches the service over connections bound to another session.
func (f *Flags) withSession(params map[string]any) (string, error) {
	if s := f.session(); s != "" {
		params["session"] = s
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encoding params: %w", err)
	}
	return string(data), nil
}

// Post actions the flags that talk to a running service. It returns
// false when none of them was given.
//
//nolint:gocyclo,cyclop // one case per flag
func (f *Flags) Post(ctx context.Context, api client.APIClient, out io.Writer) (bool, error) {
	switch {
	case f.isFlagPassed("start"):
		params := map[string]any{}
		if v := strings.TrimSpace(*f.Start); v != "" {
			params["minutes"] = v
		}
		return true, f.timerCommand(ctx, api, out, models.MethodTimerStart, params)
	case *f.Pause:
		return true, f.timerCommand(ctx, api, out, models.MethodTimerPause, map[string]any{})
	case *f.Resume:
		return true, f.timerCommand(ctx, api, out, models.MethodTimerResume, map[string]any{})
	case *f.Reset:
		return true, f.timerCommand(ctx, api, out, models.MethodTimerReset, map[string]any{})
	case *f.Status:
		return true, f.timerCommand(ctx, api, out, models.MethodTimerStatus, map[string]any{})
	case f.isFlagPassed("language"):
		if *f.Language == "" {
			return true, fmt.Errorf("language: %w", ErrMissingValue)
		}
		return true, f.timerCommand(ctx, api, out, models.MethodTimerLanguage,
			map[string]any{"language": *f.Language})
	case f.isFlagPassed("entertainment"):
		var enabled bool
		switch {
		case helpers.IsTruthy(*f.Entertainment) || strings.EqualFold(*f.Entertainment, "on"):
			enabled = true
		case helpers.IsFalsey(*f.Entertainment) || strings.EqualFold(*f.Entertainment, "off"):
		default:
			return true, fmt.Errorf("entertainment %q: %w", *f.Entertainment, ErrInvalidValue)
		}
		params, err := f.withSession(map[string]any{"enabled": enabled})
		if err != nil {
			return true, err
		}
		return true, printResult(ctx, api, out, models.MethodEntertainmentEnabled, params)
	case f.isFlagPassed("mark"):
		if *f.Mark == "" {
			return true, fmt.Errorf("mark: %w", ErrMissingValue)
		}
		params, err := f.withSession(map[string]any{"path": *f.Mark})
		if err != nil {
			return true, err
		}
		return true, printResult(ctx, api, out, models.MethodEntertainmentUsedMark, params)
	case *f.Videos:
		params, err := f.withSession(map[string]any{})
		if err != nil {
			return true, err
		}
		return true, PrintVideos(ctx, api, out, params)
	case *f.Sessions:
		return true, PrintSessions(ctx, api, out)
	case *f.Follow:
		return true, Follow(ctx, api, out)
	case f.isFlagPassed("api"):
		if *f.API == "" {
			return true, fmt.Errorf("api: %w", ErrMissingValue)
		}
		method, params, _ := strings.Cut(*f.API, ":")
		if params != "" && !helpers.MaybeJSON([]byte(params)) {
			return true, fmt.Errorf("api params must be a JSON object: %w", ErrInvalidValue)
		}
		return true, printResult(ctx, api, out, method, params)
	case *f.Reload:
		_, err := api.Call(ctx, models.MethodSettingsReload, "")
		if err != nil {
			return true, fmt.Errorf("reloading settings: %w", err)
		}
		return true, nil
	}
	return false, nil
}

func (f *Flags) timerCommand(
	ctx context.Context,
	api client.APIClient,
	out io.Writer,
	method string,
	params map[string]any,
) error {
	data, err := f.withSession(params)
	if err != nil {
		return err
	}
	resp, err := api.Call(ctx, method, data)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}

	var status models.TimerResponse
	if err := json.Unmarshal([]byte(resp), &status); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	_, _ = fmt.Fprintln(out, FormatTimer(&status))
	return nil
}

func printResult(ctx context.Context, api client.APIClient, out io.Writer, method, params string) error {
	resp, err := api.Call(ctx, method, params)
	if err != nil {
		log.Error().Err(err).Str("method", method).Msg("error calling API")
		return fmt.Errorf("calling %s: %w", method, err)
	}
	_, _ = fmt.Fprintln(out, resp)
	return nil
}

// Setup initializes logging and the user config, and turns on error
// reporting when it is configured.
//
//nolint:gocritic // config struct copied for immutability
func Setup(defaultConfig config.Values, writers []io.Writer) (*config.Instance, error) {
	err := helpers.InitLogging(helpers.LogDir(), writers)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	configDir := helpers.ConfigDir()
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}
	cfg, err := config.NewConfig(configDir, defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := telemetry.InitFromConfig(cfg); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, nil
}
