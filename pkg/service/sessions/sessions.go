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

// Package sessions keeps one countdown per session ID. Each session owns a
// timer, a used-video tracker, an overlay and a scheduler, and runs its own
// tick loop. Sessions other than the default one are dropped after going
// unused for the configured TTL.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/database"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/entertainment"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/overlay"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/playlists"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/tracker"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/timer"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	maxIDLength    = 64
	expiryInterval = time.Minute
)

var (
	ErrInvalidID = errors.New("invalid session id")
	ErrStopped   = errors.New("session manager is stopped")
)

// Options configures a Manager. DB may be nil, in which case nothing
// survives a restart.
type Options struct {
	Clock         clockwork.Clock
	DB            database.StateDBI
	Library       entertainment.VideoSource
	Lookup        playlists.DurationLookup
	Notifications chan<- models.Notification
	Timer         timer.Settings
	Entertainment entertainment.Settings
	TickInterval  time.Duration
	TTL           time.Duration
	FadeDuration  time.Duration
	Grace         time.Duration
	// Enabled is the scheduler switch of newly created sessions.
	Enabled bool
}

//nolint:gocritic // options are filled in by the caller
func OptionsFromConfig(cfg *config.Instance, opts Options) Options {
	opts.Timer = timer.SettingsFromConfig(cfg)
	opts.Entertainment = entertainment.SettingsFromConfig(cfg)
	opts.TickInterval = cfg.TimerTickInterval()
	opts.TTL = cfg.SessionTTL()
	opts.FadeDuration = cfg.EntertainmentFadeDuration()
	opts.Grace = cfg.EntertainmentPlaybackGrace()
	opts.Enabled = cfg.EntertainmentEnabled()
	return opts
}

type Manager struct {
	ctx      context.Context
	sessions map[string]*Session
	opts     Options
	wg       sync.WaitGroup
	mu       syncutil.RWMutex
	stopped  bool
}

//nolint:gocritic // options copied on construction
func NewManager(ctx context.Context, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = config.DefaultTickInterval
	}
	if opts.TTL <= 0 {
		opts.TTL = config.DefaultSessionTTL
	}
	if opts.FadeDuration <= 0 {
		opts.FadeDuration = config.DefaultFadeDuration
	}
	if opts.Grace <= 0 {
		opts.Grace = config.DefaultPlaybackGrace
	}
	return &Manager{
		ctx:      ctx,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// NormalizeID maps an empty ID to the default session and rejects IDs that
// are too long or contain anything but printable ASCII.
func NormalizeID(id string) (string, error) {
	if id == "" {
		return models.DefaultSession, nil
	}
	if len(id) > maxIDLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidID, maxIDLength)
	}
	for i := range len(id) {
		if c := id[i]; c < ' ' || c > '~' {
			return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
	}
	return id, nil
}

// Get returns the session, creating and starting it on first use. Every
// call counts as activity for expiry.
func (m *Manager) Get(id string) (*Session, error) {
	id, err := NormalizeID(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil, ErrStopped
	}
	s, ok := m.sessions[id]
	if !ok {
		s = m.newSessionLocked(id)
	}
	m.mu.Unlock()

	s.touch()
	if !ok {
		log.Info().Str("session", id).Msg("session created")
		s.saveMeta()
	}
	return s, nil
}

// Lookup returns an existing session without creating it or counting as
// activity.
func (m *Manager) Lookup(id string) (*Session, bool) {
	id, err := NormalizeID(id)
	if err != nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// List returns every live session ordered by ID.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	ss := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		ss = append(ss, s)
	}
	m.mu.RUnlock()

	sort.Slice(ss, func(i, j int) bool {
		return ss[i].id < ss[j].id
	})
	return ss
}

func (m *Manager) newSessionLocked(id string) *Session {
	ctx, cancel := context.WithCancel(m.ctx)
	clock := m.opts.Clock
	ns := m.opts.Notifications

	engine := timer.NewEngine(clock, m.opts.Timer)
	used := tracker.New(id, m.opts.DB, clock, ns)
	ov := overlay.New(id, clock, ns, m.opts.FadeDuration, m.opts.Grace)
	ctrl := entertainment.NewController(id, entertainment.Deps{
		Clock:         clock,
		Timer:         engine,
		Used:          used,
		Library:       m.opts.Library,
		Lookup:        m.opts.Lookup,
		Overlay:       ov,
		Notifications: ns,
	}, m.opts.Entertainment)
	if m.opts.Enabled {
		ctrl.SetEnabled(true)
	}

	s := &Session{
		id:         id,
		clock:      clock,
		db:         m.opts.DB,
		ns:         ns,
		Timer:      engine,
		Used:       used,
		Overlay:    ov,
		Controller: ctrl,
		cancel:     cancel,
		done:       make(chan struct{}),
		lastSeen:   clock.Now(),
	}
	m.sessions[id] = s

	m.wg.Go(func() {
		s.run(ctx, m.opts.TickInterval)
	})
	return s
}

// Restore recreates every stored session with its saved timer and
// scheduler switch. The default session is always created.
func (m *Manager) Restore() error {
	var metas map[string]database.SessionMeta
	if m.opts.DB != nil {
		var err error
		metas, err = m.opts.DB.GetSessions()
		if err != nil {
			return fmt.Errorf("loading sessions: %w", err)
		}
	}
	if _, ok := metas[models.DefaultSession]; !ok {
		if metas == nil {
			metas = make(map[string]database.SessionMeta)
		}
		metas[models.DefaultSession] = database.SessionMeta{EntertainmentEnabled: m.opts.Enabled}
	}

	for id, meta := range metas {
		if _, err := NormalizeID(id); err != nil {
			log.Warn().Err(err).Msg("skipping stored session")
			continue
		}
		s, err := m.Get(id)
		if err != nil {
			return err
		}
		if !meta.LastSeen.IsZero() {
			s.mu.Lock()
			s.lastSeen = meta.LastSeen
			s.mu.Unlock()
		}
		if err := s.Used.Load(); err != nil {
			log.Error().Err(err).Str("session", id).Msg("error loading used videos")
		}
		s.SetEnabled(meta.EntertainmentEnabled)

		if m.opts.DB == nil {
			continue
		}
		st, ok, err := m.opts.DB.LoadTimer(id)
		if err != nil {
			log.Error().Err(err).Str("session", id).Msg("error loading timer state")
			continue
		}
		if ok {
			s.Timer.Restore(st)
		}
	}

	log.Info().Int("count", len(metas)).Msg("sessions restored")
	return nil
}

// Expire drops every session other than the default one that has been
// unused for longer than the TTL and whose countdown isn't running. It
// returns the IDs dropped.
func (m *Manager) Expire() []string {
	cutoff := m.opts.Clock.Now().Add(-m.opts.TTL)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if id == models.DefaultSession {
			continue
		}
		if s.LastSeen().After(cutoff) || s.Timer.Status().IsRunning {
			continue
		}
		delete(m.sessions, id)
		expired = append(expired, s)
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(expired))
	for _, s := range expired {
		s.stop()
		if m.opts.DB != nil {
			if err := m.opts.DB.DeleteSession(s.id); err != nil {
				log.Error().Err(err).Str("session", s.id).Msg("error deleting expired session")
			}
		}
		log.Info().Str("session", s.id).Msg("session expired")
		ids = append(ids, s.id)
	}
	sort.Strings(ids)
	return ids
}

// Run expires idle sessions until the manager's context ends, then waits
// for every session to stop.
func (m *Manager) Run() {
	ticker := m.opts.Clock.NewTicker(expiryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			m.Expire()
		case <-m.ctx.Done():
			m.shutdown()
			return
		}
	}
}

func (m *Manager) shutdown() {
	m.mu.Lock()
	m.stopped = true
	ss := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		ss = append(ss, s)
	}
	m.mu.Unlock()

	for _, s := range ss {
		s.persist(s.Timer.Status())
		s.saveMeta()
	}
	m.wg.Wait()
	log.Info().Msg("all sessions stopped")
}
