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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-countdown/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/cli"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		telemetry.Flush()
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(nil)
	if exit, err := flags.Pre(os.Args[1:], os.Stdout); exit {
		return err
	}

	var logWriters []io.Writer
	if *flags.Daemon {
		logWriters = []io.Writer{os.Stderr}
	}

	cfg, err := cli.Setup(config.BaseDefaults, logWriters)
	if err != nil {
		return err
	}
	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	api := client.NewLocalAPIClient(cfg, *flags.Session)
	handled, err := flags.Post(ctx, api, os.Stdout)
	if handled {
		return err
	}

	log.Info().Msg("starting countdown service")
	err = cli.RunService(context.Background(), cfg, service.Options{})
	if errors.Is(err, cli.ErrAlreadyRunning) {
		_, _ = fmt.Fprintln(os.Stderr, "Service is already running")
		return nil
	}
	return err
}
