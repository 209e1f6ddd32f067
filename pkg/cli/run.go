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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyRunning = errors.New("service is already running")

// ServiceStarter starts the service and returns its stop func and done
// channel, as service.Start does.
type ServiceStarter func(*config.Instance, service.Options) (func() error, <-chan struct{}, error)

// runner holds the process hooks RunService depends on.
type runner struct {
	start   ServiceStarter
	running func(*config.Instance) bool
	signals func(context.Context) (context.Context, context.CancelFunc)
}

var defaultRunner = runner{
	start:   service.Start,
	running: client.IsServiceRunning,
	signals: func(ctx context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	},
}

// RunService runs the countdown service in the foreground until it is
// interrupted or stops on its own.
//
//nolint:gocritic // options copied into the service
func RunService(ctx context.Context, cfg *config.Instance, opts service.Options) error {
	return defaultRunner.run(ctx, cfg, opts)
}

//nolint:gocritic // options copied into the service
func (r runner) run(ctx context.Context, cfg *config.Instance, opts service.Options) error {
	if r.running(cfg) {
		return ErrAlreadyRunning
	}

	stop, done, err := r.start(cfg, opts)
	if err != nil {
		return fmt.Errorf("starting service: %w", err)
	}

	ctx, cancel := r.signals(ctx)
	defer cancel()

	for _, ip := range helpers.GetAllLocalIPs() {
		log.Info().Msgf("api available at http://%s:%d/api", ip, cfg.APIPort())
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down service")
		if err := stop(); err != nil {
			return fmt.Errorf("stopping service: %w", err)
		}
	case <-done:
		log.Info().Msg("service stopped")
	}
	return nil
}
