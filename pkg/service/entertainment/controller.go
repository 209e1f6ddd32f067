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

package entertainment

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/playlists"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/service/tracker"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/timer"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Deps are the collaborators of a Controller.
type Deps struct {
	Clock         clockwork.Clock
	Timer         TimerSource
	Used          UsedVideos
	Library       VideoSource
	Lookup        playlists.DurationLookup
	Overlay       Overlay
	Notifications chan<- models.Notification
}

// Controller is the phase state machine of one session. At most one tick
// or reset runs at a time; a tick that finds another in flight returns
// without doing anything.
type Controller struct {
	clock      clockwork.Clock
	timer      TimerSource
	used       UsedVideos
	library    VideoSource
	lookup     playlists.DurationLookup
	overlay    Overlay
	ns         chan<- models.Notification
	running    *semaphore.Weighted
	phaseStart time.Time
	cancelTick context.CancelFunc
	playlist   *playlists.Playlist
	phase      Phase
	session    string
	settings   Settings
	resets     atomic.Int32
	mu         syncutil.Mutex
	enabled    bool
	large      bool
	// set when a tick wound down because the countdown was reset, so the
	// following Reset still clears the used set
	owesClear  bool
}

//nolint:gocritic // deps and settings copied on construction
func NewController(session string, deps Deps, settings Settings) *Controller {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{
		clock:      clock,
		timer:      deps.Timer,
		used:       deps.Used,
		library:    deps.Library,
		lookup:     deps.Lookup,
		overlay:    deps.Overlay,
		ns:         deps.Notifications,
		running:    semaphore.NewWeighted(1),
		session:    session,
		settings:   settings,
		phase:      PhaseIdle,
		playlist:   playlists.NewPlaylist(nil),
		large:      true,
	}
}

func (c *Controller) Session() string {
	return c.session
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Phase:        c.phase,
		PhaseStarted: c.phaseStart,
		Playlist:     *c.playlist,
		Enabled:      c.enabled,
		OverlayLarge: c.large,
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SetEnabled switches scheduling on or off. Disabling interrupts a playing
// video so the next tick can wind the phases down.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	changed := c.enabled != enabled
	c.enabled = enabled
	cancel := c.cancelTick
	c.mu.Unlock()

	if !changed {
		return
	}
	if !enabled && cancel != nil {
		cancel()
	}
	log.Info().Str("session", c.session).Bool("enabled", enabled).Msg("entertainment: toggled")
	notifications.EntertainmentToggled(c.ns, models.EntertainmentToggledParams{
		Session: c.session,
		Enabled: enabled,
	})
}

// Tick evaluates the phase machine once. It returns false if the tick was
// skipped because another tick or a reset is in progress.
func (c *Controller) Tick(ctx context.Context) bool {
	if c.resets.Load() > 0 || !c.running.TryAcquire(1) {
		return false
	}
	defer c.running.Release(1)

	tickCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelTick = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancelTick = nil
		c.mu.Unlock()
		cancel()
	}()

	c.evaluate(tickCtx)
	return true
}

// Reset interrupts any playback, waits for the running tick to finish and
// returns the controller to idle. Coming from a non-idle phase it also
// fades the overlay out and clears the used-video set.
func (c *Controller) Reset(ctx context.Context) error {
	c.resets.Add(1)
	defer c.resets.Add(-1)

	c.mu.Lock()
	if c.cancelTick != nil {
		c.cancelTick()
	}
	c.mu.Unlock()

	if err := c.running.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for tick: %w", err)
	}
	defer c.running.Release(1)

	c.mu.Lock()
	active := c.phase != PhaseIdle
	owed := c.owesClear
	c.owesClear = false
	c.mu.Unlock()
	if !active && !owed {
		return nil
	}

	log.Info().Str("session", c.session).Msg("entertainment: reset")
	if active {
		c.windDown(ctx)
	}

	if err := c.used.Reset(ctx); err != nil {
		log.Error().Err(err).Str("session", c.session).Msg("entertainment: error resetting used videos")
	}
	return nil
}

func (c *Controller) evaluate(ctx context.Context) {
	used, err := c.used.List(ctx)
	if err != nil {
		log.Warn().Err(err).Str("session", c.session).
			Msg("entertainment: error fetching used videos, skipping tick")
		return
	}

	st := c.timer.Status()
	if !c.Enabled() || !st.IsRunning || st.Remaining <= 0 {
		if c.Phase() != PhaseIdle {
			log.Info().Str("session", c.session).Msg("entertainment: stopping")
			c.windDown(ctx)
			if !st.IsRunning {
				c.mu.Lock()
				c.owesClear = true
				c.mu.Unlock()
			}
		}
		return
	}

	if c.Phase() == PhaseIdle {
		c.arm(st, used)
	}

	if c.Phase() == PhaseIntro && !c.intro(ctx) {
		return
	}

	if c.Phase() == PhaseTransition && !c.transition(ctx) {
		return
	}

	st = c.timer.Status()
	if c.Phase() == PhaseOutro || st.Remaining <= seconds(c.settings.Outro) {
		c.outro(ctx)
	}
}

// arm computes the playlist for a new countdown and enters the intro.
//
//nolint:gocritic // timer state is a snapshot
func (c *Controller) arm(st timer.State, used []string) {
	c.setPhase(PhaseIntro)
	c.setLarge(true)

	all, err := c.library.List()
	if err != nil {
		log.Error().Err(err).Str("session", c.session).Msg("entertainment: error listing videos")
	}
	candidates := tracker.Filter(all, tracker.Set(used))
	budget := VideoBudget(st.Duration, c.settings)
	selected := playlists.SelectVideos(budget, candidates, c.lookup)

	c.mu.Lock()
	c.playlist = playlists.NewPlaylist(selected)
	c.owesClear = false
	c.mu.Unlock()

	log.Info().
		Str("session", c.session).
		Int("budget", budget).
		Int("candidates", len(candidates)).
		Strs("playlist", videos.Paths(selected)).
		Int("total", videos.TotalDuration(selected)).
		Msg("entertainment: starting")
}

// intro holds the overlay large for the lead-in, then plays the first
// video. It returns false when the tick should end.
func (c *Controller) intro(ctx context.Context) bool {
	if c.elapsed() < c.settings.Intro {
		c.setLarge(true)
		return true
	}

	c.setLarge(false)
	next, ok := c.current()
	if !ok {
		log.Info().Str("session", c.session).Msg("entertainment: no videos in playlist, entering outro")
		c.setPhase(PhaseOutro)
		return true
	}
	return c.play(ctx, next)
}

// transition gives the viewer a break between videos, then plays the next
// video if it still fits before the outro.
func (c *Controller) transition(ctx context.Context) bool {
	elapsed := c.elapsed()
	if elapsed < c.settings.TransitionBreak {
		c.setLarge(true)
		return true
	}
	if elapsed < c.settings.Transition {
		return true
	}

	timeLeft := c.timer.Status().Remaining - seconds(c.settings.Outro)
	next, ok := c.current()
	switch {
	case !ok:
		log.Info().Str("session", c.session).Msg("entertainment: playlist complete, entering outro")
	case next.DurationSeconds <= 0 || next.DurationSeconds > timeLeft-seconds(c.settings.SafetyMargin):
		log.Info().
			Str("session", c.session).
			Str("path", next.Path).
			Int("duration", next.DurationSeconds).
			Int("timeLeft", timeLeft).
			Msg("entertainment: no time for next video, entering outro")
	default:
		c.setLarge(false)
		return c.play(ctx, next)
	}

	c.outro(ctx)
	return true
}

// play marks the video used, plays it to the end and moves on to a
// transition. If the video can't be marked the tick ends and the next tick
// tries again.
//
//nolint:gocritic // video is a small value type
func (c *Controller) play(ctx context.Context, video videos.Video) bool {
	if _, err := c.used.MarkUsed(ctx, video.Path); err != nil {
		log.Warn().Err(err).Str("session", c.session).Str("path", video.Path).
			Msg("entertainment: error marking video used, retrying next tick")
		return false
	}

	c.setPhase(PhasePlaying)
	log.Info().Str("session", c.session).Str("path", video.Path).
		Int("duration", video.DurationSeconds).Msg("entertainment: playing video")

	err := c.overlay.Play(ctx, video)
	if ctx.Err() != nil {
		log.Debug().Str("session", c.session).Str("path", video.Path).Msg("entertainment: playback interrupted")
		return false
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("session", c.session).Str("path", video.Path).
			Msg("entertainment: playback error, continuing with transition")
	}

	c.mu.Lock()
	c.playlist = playlists.Advance(*c.playlist)
	c.mu.Unlock()
	c.setPhase(PhaseTransition)
	return true
}

// outro fades out and enlarges the overlay the first time it is entered.
func (c *Controller) outro(ctx context.Context) {
	if c.Phase() == PhaseOutro {
		return
	}
	log.Info().Str("session", c.session).Msg("entertainment: entering outro")
	c.setPhase(PhaseOutro)
	c.fadeOut(ctx)
	c.setLarge(true)
}

// windDown returns to idle, leaving the used set alone.
func (c *Controller) windDown(ctx context.Context) {
	c.fadeOut(ctx)
	c.setLarge(true)
	c.mu.Lock()
	c.playlist = playlists.NewPlaylist(nil)
	c.mu.Unlock()
	c.setPhase(PhaseIdle)
}

func (c *Controller) fadeOut(ctx context.Context) {
	if err := c.overlay.FadeOut(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Str("session", c.session).Msg("entertainment: error fading out")
	}
}

func (c *Controller) current() (videos.Video, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playlist.Current()
}

func (c *Controller) elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	// whole seconds, as the phase lengths are
	return c.clock.Since(c.phaseStart).Truncate(time.Second)
}

func (c *Controller) setPhase(phase Phase) {
	c.mu.Lock()
	previous := c.phase
	c.phase = phase
	if phase == PhaseIdle {
		c.phaseStart = time.Time{}
	} else {
		c.phaseStart = c.clock.Now()
	}
	c.mu.Unlock()

	if previous == phase {
		return
	}
	log.Debug().Str("session", c.session).Str("from", string(previous)).Str("to", string(phase)).
		Msg("entertainment: phase changed")
	notifications.PhaseChanged(c.ns, models.PhaseChangedParams{
		Session:  c.session,
		Phase:    string(phase),
		Previous: string(previous),
	})
}

// setLarge signals the overlay only when its size actually changes.
func (c *Controller) setLarge(large bool) {
	c.mu.Lock()
	changed := c.large != large
	c.large = large
	c.mu.Unlock()

	if !changed {
		return
	}
	if large {
		c.overlay.Enlarge()
	} else {
		c.overlay.Shrink()
	}
}
