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

package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/methods"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/syncutil"
)

var ErrMethodExists = errors.New("method already registered")

type MethodFunc func(requests.RequestEnv) (any, error)

// MethodMap is the registry of JSON-RPC methods. Names are case
// insensitive.
type MethodMap struct {
	methods map[string]MethodFunc
	mu      syncutil.RWMutex
}

func NewMethodMap() *MethodMap {
	return &MethodMap{methods: make(map[string]MethodFunc)}
}

func (m *MethodMap) AddMethod(name string, fn MethodFunc) error {
	key := strings.ToLower(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.methods[key]; ok {
		return fmt.Errorf("%w: %s", ErrMethodExists, name)
	}
	m.methods[key] = fn
	return nil
}

func (m *MethodMap) GetMethod(name string) (MethodFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.methods[strings.ToLower(name)]
	return fn, ok
}

// Names lists the registered methods in order.
func (m *MethodMap) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.methods))
	for name := range m.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMethods returns the countdown API.
func DefaultMethods() *MethodMap {
	m := NewMethodMap()
	for name, fn := range map[string]MethodFunc{
		// timer
		models.MethodTimerStart:    methods.HandleTimerStart,
		models.MethodTimerPause:    methods.HandleTimerPause,
		models.MethodTimerResume:   methods.HandleTimerResume,
		models.MethodTimerReset:    methods.HandleTimerReset,
		models.MethodTimerStatus:   methods.HandleTimerStatus,
		models.MethodTimerLanguage: methods.HandleTimerLanguage,
		// entertainment
		models.MethodVideos:                 methods.HandleVideos,
		models.MethodEntertainmentStatus:    methods.HandleEntertainmentStatus,
		models.MethodEntertainmentEnabled:   methods.HandleEntertainmentEnabled,
		models.MethodEntertainmentUsedMark:  methods.HandleMarkUsed,
		models.MethodEntertainmentUsedReset: methods.HandleResetUsed,
		models.MethodOverlayEnded:           methods.HandleOverlayEnded,
		// service
		models.MethodSessions:             methods.HandleSessions,
		models.MethodSettings:             methods.HandleSettings,
		models.MethodSettingsUpdate:       methods.HandleSettingsUpdate,
		models.MethodSettingsReload:       methods.HandleSettingsReload,
		models.MethodSettingsLogsDownload: methods.HandleLogsDownload,
		models.MethodVersion:              methods.HandleVersion,
	} {
		// names are unique map keys
		_ = m.AddMethod(name, fn)
	}
	return m
}
