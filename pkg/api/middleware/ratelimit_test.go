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

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_BurstThenRefill(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	limiter := NewIPRateLimiterWithClock(clock)

	for i := range BurstSize {
		assert.True(t, limiter.Allow("192.168.1.100"), "request %d within burst", i+1)
	}
	assert.False(t, limiter.Allow("192.168.1.100"), "request beyond burst")

	// one token every 60/RequestsPerMinute seconds
	clock.Advance(time.Minute/RequestsPerMinute + 100*time.Millisecond)
	assert.True(t, limiter.Allow("192.168.1.100"))
	assert.False(t, limiter.Allow("192.168.1.100"))
}

func TestIPRateLimiter_PerAddress(t *testing.T) {
	t.Parallel()

	limiter := NewIPRateLimiterWithClock(clockwork.NewFakeClock())

	rl1 := limiter.GetLimiter("192.168.1.100")
	rl2 := limiter.GetLimiter("192.168.1.101")
	assert.NotSame(t, rl1, rl2)
	assert.Same(t, rl1, limiter.GetLimiter("192.168.1.100"))

	for range BurstSize {
		limiter.Allow("192.168.1.100")
	}
	assert.False(t, limiter.Allow("192.168.1.100"))
	assert.True(t, limiter.Allow("192.168.1.101"))
}

func TestIPRateLimiter_Cleanup(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	limiter := NewIPRateLimiterWithClock(clock)

	limiter.GetLimiter("old.ip")
	clock.Advance(staleAfter + time.Minute)
	limiter.GetLimiter("new.ip")

	limiter.Cleanup()

	assert.Len(t, limiter.limiters, 1)
	assert.Contains(t, limiter.limiters, "new.ip")
}

func TestHTTPRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	limiter := NewIPRateLimiterWithClock(clockwork.NewFakeClock())
	calls := 0
	handler := HTTPRateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/start", http.NoBody)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for range BurstSize {
		assert.Equal(t, http.StatusOK, serve("192.168.1.100:12345"))
	}
	assert.Equal(t, http.StatusTooManyRequests, serve("192.168.1.100:23456"), "ports share a bucket")
	assert.Equal(t, http.StatusOK, serve("[2001:db8::1]:8080"))
	assert.Equal(t, http.StatusOK, serve("192.168.1.101"))
	assert.Equal(t, BurstSize+2, calls)
}
