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

package mocks

import (
	"fmt"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/database"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/timer"
	"github.com/stretchr/testify/mock"
)

// MockStateDBI is a mock implementation of database.StateDBI using
// testify/mock.
type MockStateDBI struct {
	mock.Mock
}

func NewMockStateDBI() *MockStateDBI {
	return &MockStateDBI{}
}

func (m *MockStateDBI) Close() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock StateDBI close failed: %w", err)
	}
	return nil
}

func (m *MockStateDBI) GetDBPath() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockStateDBI) SaveTimer(session string, state timer.State) error {
	args := m.Called(session, state)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock StateDBI save timer failed: %w", err)
	}
	return nil
}

func (m *MockStateDBI) LoadTimer(session string) (timer.State, bool, error) {
	args := m.Called(session)
	state, ok := args.Get(0).(timer.State)
	if !ok {
		state = timer.State{}
	}
	if err := args.Error(2); err != nil {
		return state, args.Bool(1), fmt.Errorf("mock StateDBI load timer failed: %w", err)
	}
	return state, args.Bool(1), nil
}

func (m *MockStateDBI) AddUsedVideo(session, videoPath string, added time.Time) (bool, error) {
	args := m.Called(session, videoPath, added)
	if err := args.Error(1); err != nil {
		return args.Bool(0), fmt.Errorf("mock StateDBI add used video failed: %w", err)
	}
	return args.Bool(0), nil
}

func (m *MockStateDBI) GetUsedVideos(session string) ([]database.UsedVideo, error) {
	args := m.Called(session)
	used, ok := args.Get(0).([]database.UsedVideo)
	if !ok {
		used = nil
	}
	if err := args.Error(1); err != nil {
		return used, fmt.Errorf("mock StateDBI get used videos failed: %w", err)
	}
	return used, nil
}

func (m *MockStateDBI) ClearUsedVideos(session string) error {
	args := m.Called(session)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock StateDBI clear used videos failed: %w", err)
	}
	return nil
}

func (m *MockStateDBI) SaveSessionMeta(session string, meta database.SessionMeta) error {
	args := m.Called(session, meta)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock StateDBI save session meta failed: %w", err)
	}
	return nil
}

func (m *MockStateDBI) GetSessions() (map[string]database.SessionMeta, error) {
	args := m.Called()
	sessions, ok := args.Get(0).(map[string]database.SessionMeta)
	if !ok {
		sessions = nil
	}
	if err := args.Error(1); err != nil {
		return sessions, fmt.Errorf("mock StateDBI get sessions failed: %w", err)
	}
	return sessions, nil
}

func (m *MockStateDBI) DeleteSession(session string) error {
	args := m.Called(session)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock StateDBI delete session failed: %w", err)
	}
	return nil
}
