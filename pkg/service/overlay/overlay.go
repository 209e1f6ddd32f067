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

// Package overlay drives browser display surfaces through the notification
// stream. Displays report the end of a video with the overlay.ended method.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/videos"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// VideosPath is where the library is served to displays.
const VideosPath = "/vids/"

var ErrAlreadyPlaying = errors.New("a video is already playing")

// Overlay is the display surface of one session.
type Overlay struct {
	clock   clockwork.Clock
	ns      chan<- models.Notification
	ended   chan struct{}
	session string
	playing string
	fade    time.Duration
	grace   time.Duration
	mu      syncutil.Mutex
}

func New(
	session string,
	clock clockwork.Clock,
	ns chan<- models.Notification,
	fade time.Duration,
	grace time.Duration,
) *Overlay {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Overlay{
		clock:   clock,
		ns:      ns,
		session: session,
		fade:    fade,
		grace:   grace,
	}
}

func (o *Overlay) Enlarge() {
	notifications.OverlayEnlarge(o.ns, o.session)
}

func (o *Overlay) Shrink() {
	notifications.OverlayShrink(o.ns, o.session)
}

// Play asks displays to play the video and waits for one to report the
// end. If none does by the video's length plus the playback grace, the
// video is treated as finished.
//
//nolint:gocritic // video is a small value type
func (o *Overlay) Play(ctx context.Context, video videos.Video) error {
	ended := make(chan struct{})

	o.mu.Lock()
	if o.ended != nil {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyPlaying, o.playing)
	}
	o.ended = ended
	o.playing = video.Path
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.ended = nil
		o.playing = ""
		o.mu.Unlock()
	}()

	notifications.OverlayPlay(o.ns, models.OverlayPlayParams{
		Session:  o.session,
		Path:     video.Path,
		URL:      VideoURL(video.Path),
		Duration: video.DurationSeconds,
	})

	deadline := time.Duration(video.DurationSeconds)*time.Second + o.grace
	timer := o.clock.NewTimer(deadline)
	defer timer.Stop()

	select {
	case <-ended:
		log.Debug().Str("session", o.session).Str("path", video.Path).Msg("overlay: display reported end")
		return nil
	case <-timer.Chan():
		log.Warn().Str("session", o.session).Str("path", video.Path).
			Msg("overlay: no display reported end of video, continuing")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("playing %s: %w", video.Path, ctx.Err())
	}
}

// Ended marks the playing video as finished. An empty path matches any
// video. It returns false if nothing matching was playing.
func (o *Overlay) Ended(videoPath string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ended == nil {
		return false
	}
	if videoPath != "" && videoPath != o.playing {
		return false
	}
	close(o.ended)
	o.ended = nil
	return true
}

// Playing returns the path of the video being played, if any.
func (o *Overlay) Playing() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing, o.playing != ""
}

// FadeOut tells displays to fade out and waits for the fade to finish.
func (o *Overlay) FadeOut(ctx context.Context) error {
	notifications.OverlayFadeOut(o.ns, models.OverlayFadeOutParams{
		Session:  o.session,
		Duration: o.fade.Milliseconds(),
	})

	timer := o.clock.NewTimer(o.fade)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("fading out: %w", ctx.Err())
	}
}

// VideoURL returns the URL path displays load a library video from.
func VideoURL(videoPath string) string {
	segments := strings.Split(videoPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return VideosPath + strings.Join(segments, "/")
}
