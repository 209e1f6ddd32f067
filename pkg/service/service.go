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

// Package service wires the countdown together: the video library and its
// duration cache, the session manager, the API server and the optional
// discovery and MQTT integrations.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/database/statedb"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/command"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/broker"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/discovery"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/publishers"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/sessions"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/state"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const subscriberBuffer = 100

// Options overrides the environment the service runs in. Zero values fall
// back to the user's XDG directories, ffprobe from the config and the real
// clock.
type Options struct {
	Prober  videos.Prober
	Clock   clockwork.Clock
	DataDir string
	LogDir  string
}

func (o *Options) fill(cfg *config.Instance) {
	if o.DataDir == "" {
		o.DataDir = helpers.DataDir()
	}
	if o.LogDir == "" {
		o.LogDir = helpers.LogDir()
	}
	if o.Prober == nil {
		o.Prober = videos.NewFFProbe(&command.RealExecutor{}, cfg.FFProbePath())
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
}

func setupEnvironment(cfg *config.Instance, opts *Options) error {
	if _, ok := helpers.HasUserDir(); ok {
		log.Info().Msg("using 'user' directory for storage")
	}

	log.Info().Msg("creating data directories")
	dirs := []string{
		opts.DataDir,
		opts.LogDir,
		cfg.VideosDir(opts.DataDir),
	}
	for _, dir := range dirs {
		err := os.MkdirAll(dir, 0o750)
		if err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// scanLibrary fills the duration cache for every video present at start.
// Sessions resolve unscanned videos on demand until it finishes.
func scanLibrary(st *state.State, lib *videos.Library, cache *videos.Cache) {
	st.SetScanning(true)
	defer st.SetScanning(false)

	vs, err := lib.List()
	if err != nil {
		log.Error().Err(err).Msg("error listing video library")
		return
	}
	log.Info().Int("videos", len(vs)).Msg("scanning video durations")
	err = cache.ScanAll(st.GetContext(), vs)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("error scanning video durations")
	}
}

func watchLibrary(st *state.State, w *videos.Watcher) {
	if err := w.Run(st.GetContext()); err != nil {
		log.Error().Err(err).Msg("video library watcher stopped")
	}
}

// videosAdded announces newly discovered videos with their resolved
// durations.
func videosAdded(ns chan<- models.Notification) func(videos.Video) {
	return func(v videos.Video) {
		notifications.VideosAdded(ns, models.VideosAddedParams{
			Videos: []models.VideoResponse{{
				Path:     v.Path,
				Filename: v.Filename,
				Duration: v.DurationSeconds,
			}},
		})
	}
}

func startPublishers(cfg *config.Instance, b *broker.Broker) []*publishers.MQTTPublisher {
	var active []*publishers.MQTTPublisher
	for _, p := range publishers.FromConfig(cfg) {
		ns, id := b.Subscribe(subscriberBuffer)
		if err := p.Start(ns); err != nil {
			log.Error().Err(err).Msg("failed to start mqtt publisher")
			b.Unsubscribe(id)
			continue
		}
		active = append(active, p)
	}
	return active
}

// Start brings up the countdown service. stop cancels the service and
// waits for cleanup; done is closed once cleanup has finished, whatever
// triggered it.
//
//nolint:gocritic // options copied so defaults can be filled in
func Start(
	cfg *config.Instance,
	opts Options,
) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)
	opts.fill(cfg)

	bootUUID := uuid.New().String()
	log.Info().Msgf("boot session UUID: %s", bootUUID)

	st, ns := state.NewState(opts.Clock, bootUUID)

	err = setupEnvironment(cfg, &opts)
	if err != nil {
		log.Error().Err(err).Msg("error setting up environment")
		st.StopService()
		return nil, nil, err
	}

	log.Info().Msg("opening state database")
	db, err := statedb.Open(filepath.Join(opts.DataDir, config.StateDBFile))
	if err != nil {
		log.Error().Err(err).Msg("error opening state database")
		st.StopService()
		return nil, nil, fmt.Errorf("failed to open state database: %w", err)
	}

	notifBroker := broker.NewBroker(st.GetContext(), ns)
	notifBroker.Start()

	videosDir := cfg.VideosDir(opts.DataDir)
	log.Info().Str("dir", videosDir).Msg("opening video library")
	lib := videos.NewLibrary(afero.NewOsFs(), videosDir, cfg.VideoExtensions())
	cache := videos.NewCache(lib, opts.Prober, cfg.ProbeTimeout(), cfg.ProbeWorkers())
	go scanLibrary(st, lib, cache)

	if cfg.WatchVideos() {
		log.Info().Msg("starting video library watcher")
		watcher := videos.NewWatcher(lib, cache, opts.Clock, videosAdded(st.Notifications))
		go watchLibrary(st, watcher)
	}

	log.Info().Msg("restoring sessions")
	mgr := sessions.NewManager(st.GetContext(), sessions.OptionsFromConfig(cfg, sessions.Options{
		Clock:         opts.Clock,
		DB:            db,
		Library:       lib,
		Lookup:        cache.Duration,
		Notifications: st.Notifications,
	}))
	if restoreErr := mgr.Restore(); restoreErr != nil {
		log.Error().Err(restoreErr).Msg("error restoring sessions")
	}
	sessionsDone := make(chan struct{})
	go func() {
		defer close(sessionsDone)
		mgr.Run()
	}()

	log.Info().Msg("starting API service")
	srv := api.NewServer(api.Options{
		Config:   cfg,
		Sessions: mgr,
		Library:  lib,
		Cache:    cache,
		Broker:   notifBroker,
		Methods:  api.DefaultMethods(),
		LogDir:   opts.LogDir,
	})
	if err = srv.Start(st.GetContext()); err != nil {
		log.Error().Err(err).Msg("error starting API service")
		st.StopService()
		<-sessionsDone
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing state database")
		}
		return nil, nil, fmt.Errorf("failed to start api server: %w", err)
	}

	log.Info().Msg("starting mDNS discovery service")
	discoveryService := discovery.New(cfg, opts.Clock)
	if discoveryErr := discoveryService.Start(); discoveryErr != nil {
		log.Error().Err(discoveryErr).Msg("mDNS discovery failed to start (continuing without discovery)")
	}

	log.Info().Msg("starting publishers")
	activePublishers := startPublishers(cfg, notifBroker)

	log.Info().Msg("service fully initialized")

	doneCh := make(chan struct{})
	go func() {
		<-st.GetContext().Done()
		log.Info().Msg("service context cancelled, running cleanup")

		discoveryService.Stop()
		for _, publisher := range activePublishers {
			publisher.Stop()
		}
		<-sessionsDone
		<-srv.Done()
		notifBroker.Stop()
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing state database")
		}

		log.Info().Msg("service cleanup completed")
		close(doneCh)
	}()

	stop = func() error {
		st.StopService()
		<-doneCh
		return nil
	}
	done = doneCh
	return stop, done, nil
}
