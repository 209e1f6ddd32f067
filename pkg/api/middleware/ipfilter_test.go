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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIPFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		allowed  []string
		prefixes int
	}{
		{name: "empty", allowed: nil, prefixes: 0},
		{name: "single ip", allowed: []string{"192.168.1.10"}, prefixes: 1},
		{name: "ip with port", allowed: []string{"192.168.1.10:7497"}, prefixes: 1},
		{name: "cidr", allowed: []string{"10.0.0.0/8"}, prefixes: 1},
		{name: "ipv6", allowed: []string{"fe80::1", "2001:db8::/32"}, prefixes: 2},
		{name: "invalid skipped", allowed: []string{"nope", "10.0.0.1", "300.1.1.1"}, prefixes: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := NewIPFilter(tt.allowed)
			assert.Len(t, f.prefixes, tt.prefixes)
			assert.Equal(t, tt.prefixes > 0, f.Enabled())
		})
	}
}

func TestIPFilter_IsAllowed(t *testing.T) {
	t.Parallel()

	f := NewIPFilter([]string{"192.168.1.10", "10.1.0.0/16", "2001:db8::/32"})

	tests := []struct {
		addr string
		want bool
	}{
		{addr: "192.168.1.10:5000", want: true},
		{addr: "192.168.1.11:5000", want: false},
		{addr: "10.1.200.3:80", want: true},
		{addr: "10.2.0.1:80", want: false},
		{addr: "[2001:db8::5]:443", want: true},
		{addr: "[2001:db9::5]:443", want: false},
		{addr: "[::ffff:192.168.1.10]:5000", want: true},
		{addr: "127.0.0.1:40000", want: true},
		{addr: "[::1]:40000", want: true},
		{addr: "garbage", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, f.IsAllowed(tt.addr))
		})
	}

	assert.True(t, NewIPFilter(nil).IsAllowed("203.0.113.9:1"), "no allowlist allows everything")
}

func TestHTTPIPFilterMiddleware(t *testing.T) {
	t.Parallel()

	handler := HTTPIPFilterMiddleware(NewIPFilter([]string{"192.168.1.0/24"}))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	tests := []struct {
		remote string
		want   int
	}{
		{remote: "192.168.1.50:1234", want: http.StatusOK},
		{remote: "192.168.2.50:1234", want: http.StatusForbidden},
		{remote: "127.0.0.1:1234", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/status", http.NoBody)
			req.RemoteAddr = tt.remote
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestParseRemoteIP(t *testing.T) {
	t.Parallel()

	addr, ok := ParseRemoteIP("192.168.1.1:8080")
	require.True(t, ok)
	assert.Equal(t, "192.168.1.1", addr.String())

	addr, ok = ParseRemoteIP("[::1]:8080")
	require.True(t, ok)
	assert.True(t, addr.IsLoopback())

	addr, ok = ParseRemoteIP("10.0.0.1")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", addr.String())

	_, ok = ParseRemoteIP("not-an-ip:80")
	assert.False(t, ok)
}

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLoopbackAddr("127.0.0.1:1"))
	assert.True(t, IsLoopbackAddr("[::1]:1"))
	assert.False(t, IsLoopbackAddr("192.168.1.1:1"))
	assert.False(t, IsLoopbackAddr(""))
}
