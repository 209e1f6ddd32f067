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

package timer

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"pgregory.net/rapid"
)

// ============================================================================
// Start / Status Property Tests
// ============================================================================

// TestPropertyStartStatusWithinGrace verifies a fresh countdown reports its
// full length for the whole grace window.
func TestPropertyStartStatusWithinGrace(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		minutes := rapid.IntRange(1, 600).Draw(t, "minutes")
		elapsed := rapid.Int64Range(0, int64(2*time.Second)-1).Draw(t, "elapsed")

		clock := clockwork.NewFakeClockAt(testEpoch)
		e := NewEngine(clock, DefaultSettings())
		e.Start(float64(minutes))
		clock.Advance(time.Duration(elapsed))

		if got := e.Status().Remaining; got != minutes*60 {
			t.Fatalf("expected %d remaining, got %d", minutes*60, got)
		}
	})
}

// TestPropertyStatusMatchesTick verifies a status read never contradicts the
// next tick.
func TestPropertyStatusMatchesTick(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		minutes := rapid.Float64Range(0.1, 120).Draw(t, "minutes")
		elapsed := rapid.Int64Range(0, int64(3*time.Hour)).Draw(t, "elapsed")

		clock := clockwork.NewFakeClockAt(testEpoch)
		e := NewEngine(clock, DefaultSettings())
		e.Start(minutes)
		clock.Advance(time.Duration(elapsed))

		status := e.Status()
		ticked, res := e.Tick()
		if res == TickExtended {
			return
		}
		if status.Remaining != ticked.Remaining {
			t.Fatalf("status %d != tick %d (%s)", status.Remaining, ticked.Remaining, res)
		}
	})
}

// ============================================================================
// Pause / Resume / Reset Property Tests
// ============================================================================

// TestPropertyPauseResumeRoundTrip verifies pausing and resuming without
// elapsed time leaves the remaining time unchanged within a second.
func TestPropertyPauseResumeRoundTrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		minutes := rapid.IntRange(1, 240).Draw(t, "minutes")
		elapsed := rapid.Int64Range(0, int64(minutes)*int64(time.Minute)).Draw(t, "elapsed")

		clock := clockwork.NewFakeClockAt(testEpoch)
		e := NewEngine(clock, DefaultSettings())
		e.Start(float64(minutes))
		clock.Advance(time.Duration(elapsed))

		before := e.Status().Remaining
		e.Pause()
		after := e.Resume().Remaining

		if diff := before - after; diff < -1 || diff > 1 {
			t.Fatalf("remaining drifted from %d to %d", before, after)
		}
	})
}

// TestPropertyResetAlwaysIdle verifies any sequence of operations followed by
// Reset leaves an idle countdown.
func TestPropertyResetAlwaysIdle(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		clock := clockwork.NewFakeClockAt(testEpoch)
		e := NewEngine(clock, DefaultSettings())

		ops := rapid.SliceOfN(rapid.IntRange(0, 4), 0, 30).Draw(t, "ops")
		for _, op := range ops {
			switch op {
			case 0:
				e.Start(rapid.Float64Range(-10, 60).Draw(t, "minutes"))
			case 1:
				e.Pause()
			case 2:
				e.Resume()
			case 3:
				e.Tick()
			default:
				clock.Advance(time.Duration(rapid.IntRange(0, 400).Draw(t, "secs")) * time.Second)
			}
		}

		s, _ := e.Reset()
		if s.IsRunning || s.IsPaused || s.Remaining != 0 || s.Duration != 0 ||
			s.EndTime != nil || s.AutoExtendTime != nil {
			t.Fatalf("reset left non-idle state: %+v", s)
		}
	})
}

// TestPropertyPausedImpliesRunning verifies the paused flag never appears
// without the running flag.
func TestPropertyPausedImpliesRunning(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		clock := clockwork.NewFakeClockAt(testEpoch)
		e := NewEngine(clock, DefaultSettings())

		ops := rapid.SliceOfN(rapid.IntRange(0, 5), 1, 40).Draw(t, "ops")
		for _, op := range ops {
			var s State
			switch op {
			case 0:
				s = e.Start(float64(rapid.IntRange(1, 10).Draw(t, "minutes")))
			case 1:
				s = e.Pause()
			case 2:
				s = e.Resume()
			case 3:
				s, _ = e.Tick()
			case 4:
				s, _ = e.Reset()
			default:
				clock.Advance(time.Duration(rapid.IntRange(0, 120).Draw(t, "secs")) * time.Second)
				s = e.Status()
			}
			if s.IsPaused && !s.IsRunning {
				t.Fatalf("paused without running: %+v", s)
			}
			if s.Remaining < 0 {
				t.Fatalf("negative remaining: %+v", s)
			}
		}
	})
}

// ============================================================================
// Auto-Extend Property Tests
// ============================================================================

// TestPropertySingleExtension verifies an expired countdown gains exactly one
// extension block, however long after expiry it is ticked.
func TestPropertySingleExtension(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		minutes := rapid.IntRange(1, 10).Draw(t, "minutes")
		wait := rapid.IntRange(30, 299).Draw(t, "wait")

		clock := clockwork.NewFakeClockAt(testEpoch)
		e := NewEngine(clock, DefaultSettings())
		e.Start(float64(minutes))

		clock.Advance(time.Duration(minutes) * time.Minute)
		if _, res := e.Tick(); res != TickExpired {
			t.Fatalf("expected expiry, got %s", res)
		}

		extensions := 0
		for range wait {
			clock.Advance(time.Second)
			if _, res := e.Tick(); res == TickExtended {
				extensions++
			}
		}

		s := e.Status()
		if extensions != 1 {
			t.Fatalf("expected one extension, got %d", extensions)
		}
		if s.Duration != minutes*60+300 {
			t.Fatalf("expected duration %d, got %d", minutes*60+300, s.Duration)
		}
		if s.Remaining <= 0 || s.Remaining > 300 {
			t.Fatalf("remaining out of range after extension: %d", s.Remaining)
		}
	})
}

// TestPropertyToSecondsNonNegative verifies length conversion never yields a
// negative value.
func TestPropertyToSecondsNonNegative(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		m := rapid.Float64().Draw(t, "minutes")
		s := toSeconds(m)
		if s < 0 {
			t.Fatalf("negative seconds %d for %v", s, m)
		}
		if m > 0 && m < math.MaxInt32/60 && s != int(math.Floor(m*60)) {
			t.Fatalf("expected floor(%v*60), got %d", m, s)
		}
	})
}
