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

package helpers

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
)

var ErrUnknownVideo = errors.New("unknown video")

// FakeProber returns fixed durations keyed by file base name. Unknown files
// fail to probe. When Block is set every probe waits for ctx to end.
type FakeProber struct {
	Durations map[string]float64
	calls     map[string]int
	total     atomic.Int64
	Block     bool
	mu        sync.Mutex
}

func NewFakeProber(durations map[string]float64) *FakeProber {
	return &FakeProber{
		Durations: durations,
		calls:     make(map[string]int),
	}
}

func (p *FakeProber) Probe(ctx context.Context, file string) (float64, error) {
	name := filepath.Base(file)
	p.total.Add(1)

	p.mu.Lock()
	p.calls[name]++
	d, ok := p.Durations[name]
	p.mu.Unlock()

	if p.Block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if !ok {
		return 0, ErrUnknownVideo
	}
	return d, nil
}

// Calls returns how many times the named file was probed.
func (p *FakeProber) Calls(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[name]
}

// TotalCalls returns the number of probes across all files.
func (p *FakeProber) TotalCalls() int {
	return int(p.total.Load())
}
