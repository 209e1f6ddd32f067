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
	"context"
	"encoding/json"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/stretchr/testify/mock"
)

// MockAPIClient is a mock implementation of client.APIClient for testing.
type MockAPIClient struct {
	mock.Mock
}

// NewMockAPIClient creates a new mock API client.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Call mocks the API call method.
func (m *MockAPIClient) Call(ctx context.Context, method, params string) (string, error) {
	args := m.Called(ctx, method, params)
	return args.String(0), args.Error(1)
}

// WaitNotification mocks waiting for a notification.
func (m *MockAPIClient) WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	notificationType string,
) (string, error) {
	args := m.Called(ctx, timeout, notificationType)
	return args.String(0), args.Error(1)
}

// SetupResponse makes any call to method return result encoded as JSON.
func (m *MockAPIClient) SetupResponse(method string, result any) {
	data, _ := json.Marshal(result)
	m.On("Call", mock.Anything, method, mock.Anything).Return(string(data), nil)
}

// SetupError makes any call to method fail with err.
func (m *MockAPIClient) SetupError(method string, err error) {
	m.On("Call", mock.Anything, method, mock.Anything).Return("", err)
}

// SetupTimerResponse configures every timer method to return resp.
func (m *MockAPIClient) SetupTimerResponse(resp *models.TimerResponse) {
	for _, method := range []string{
		models.MethodTimerStart,
		models.MethodTimerPause,
		models.MethodTimerResume,
		models.MethodTimerStatus,
	} {
		m.SetupResponse(method, resp)
	}
}

// SetupSettingsResponse configures the mock to return a settings response.
func (m *MockAPIClient) SetupSettingsResponse(settings *models.SettingsResponse) {
	m.SetupResponse(models.MethodSettings, settings)
}

// SetupNotification makes waiting for method return params encoded as
// JSON.
func (m *MockAPIClient) SetupNotification(method string, params any) {
	data, _ := json.Marshal(params)
	m.On("WaitNotification", mock.Anything, mock.Anything, method).Return(string(data), nil)
}
