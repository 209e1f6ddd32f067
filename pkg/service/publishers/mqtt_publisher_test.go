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

package publishers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWithMock(
	t *testing.T,
	topic string,
	filter []string,
) (*MQTTPublisher, *mockMQTTClient, chan models.Notification) {
	t.Helper()

	client := newMockMQTTClient()
	p := NewMQTTPublisher("localhost:1883", topic, filter)
	p.newClient = func(*mqtt.ClientOptions) mqtt.Client { return client }

	ns := make(chan models.Notification, 10)
	require.NoError(t, p.Start(ns))
	t.Cleanup(p.Stop)
	return p, client, ns
}

func waitPublished(t *testing.T, client *mockMQTTClient, n int) []publishedMessage {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(client.published()) >= n
	}, 2*time.Second, 5*time.Millisecond)
	return client.published()
}

func TestMatchesFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		filter []string
		want   bool
	}{
		{name: "nil filter", method: models.NotificationTimerChanged, want: true},
		{name: "empty filter", filter: []string{}, method: models.NotificationOverlayPlay, want: true},
		{
			name:   "listed",
			filter: []string{models.NotificationTimerChanged, models.NotificationTimerExtended},
			method: models.NotificationTimerExtended,
			want:   true,
		},
		{
			name:   "not listed",
			filter: []string{models.NotificationTimerChanged},
			method: models.NotificationOverlayShrink,
			want:   false,
		},
		{
			name:   "case sensitive",
			filter: []string{models.NotificationTimerChanged},
			method: "Timer.Changed",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &MQTTPublisher{filter: tt.filter}
			assert.Equal(t, tt.want, p.matchesFilter(tt.method))
		})
	}
}

func TestTopicFor(t *testing.T) {
	t.Parallel()

	p := NewMQTTPublisher("localhost:1883", "countdown/", nil)

	tests := []struct {
		name   string
		method string
		params string
		want   string
	}{
		{
			name:   "session scoped",
			method: models.NotificationTimerChanged,
			params: `{"session":"stage"}`,
			want:   "countdown/stage/timer/changed",
		},
		{
			name:   "no session",
			method: models.NotificationVideosAdded,
			params: `{"videos":[]}`,
			want:   "countdown/videos/added",
		},
		{
			name:   "wildcard session ignored",
			method: models.NotificationOverlayPlay,
			params: `{"session":"a/#"}`,
			want:   "countdown/overlay/play",
		},
		{
			name:   "no params",
			method: models.NotificationEntertainmentPhase,
			want:   "countdown/entertainment/phase",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n := models.Notification{Method: tt.method, Params: []byte(tt.params)}
			assert.Equal(t, tt.want, p.topicFor(n))
		})
	}
}

func TestBrokerURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tcp://localhost:1883", brokerURL("localhost:1883"))
	assert.Equal(t, "ssl://mqtt.example.com:8883", brokerURL("ssl://mqtt.example.com:8883"))
}

func TestPublish_RetainsStateMessages(t *testing.T) {
	t.Parallel()

	_, client, ns := startWithMock(t, "countdown", nil)

	ns <- models.Notification{
		Method: models.NotificationTimerChanged,
		Params: []byte(`{"session":"default","remaining":300}`),
	}
	ns <- models.Notification{
		Method: models.NotificationOverlayShrink,
		Params: []byte(`{"session":"default"}`),
	}

	msgs := waitPublished(t, client, 2)
	assert.Equal(t, "countdown/default/timer/changed", msgs[0].topic)
	assert.True(t, msgs[0].retained)
	assert.JSONEq(t, `{"session":"default","remaining":300}`, string(msgs[0].payload.([]byte)))

	assert.Equal(t, "countdown/default/overlay/shrink", msgs[1].topic)
	assert.False(t, msgs[1].retained)
}

func TestPublish_Filtered(t *testing.T) {
	t.Parallel()

	_, client, ns := startWithMock(t, "countdown", []string{models.NotificationTimerExtended})

	ns <- models.Notification{Method: models.NotificationTimerChanged, Params: []byte(`{}`)}
	ns <- models.Notification{Method: models.NotificationTimerExtended, Params: []byte(`{"added":300}`)}

	msgs := waitPublished(t, client, 1)
	require.Len(t, msgs, 1)
	assert.Equal(t, "countdown/timer/extended", msgs[0].topic)
}

func TestPublish_ErrorDoesNotStop(t *testing.T) {
	t.Parallel()

	_, client, ns := startWithMock(t, "countdown", nil)
	client.mu.Lock()
	client.publishError = assert.AnError
	client.mu.Unlock()

	ns <- models.Notification{Method: models.NotificationTimerChanged}
	time.Sleep(20 * time.Millisecond)

	client.mu.Lock()
	client.publishError = nil
	client.mu.Unlock()

	ns <- models.Notification{Method: models.NotificationTimerExtended}
	require.Eventually(t, func() bool {
		for _, m := range client.published() {
			if m.topic == "countdown/timer/extended" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStart_ConnectError(t *testing.T) {
	t.Parallel()

	client := newMockMQTTClient()
	client.connectError = assert.AnError
	p := NewMQTTPublisher("localhost:1883", "countdown", nil)
	p.newClient = func(*mqtt.ClientOptions) mqtt.Client { return client }

	err := p.Start(make(chan models.Notification))
	require.ErrorIs(t, err, assert.AnError)
	p.Stop()
}

func TestStop_Disconnects(t *testing.T) {
	t.Parallel()

	p, client, _ := startWithMock(t, "countdown", nil)

	p.Stop()
	p.Stop()

	assert.Equal(t, 1, client.disconnects())
	assert.False(t, client.IsConnected())
	_, ok := <-p.stopCh
	assert.False(t, ok)
}

func TestStop_ChannelClosed(t *testing.T) {
	t.Parallel()

	p, _, ns := startWithMock(t, "countdown", nil)
	close(ns)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not stop after channel close")
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := `config_schema = 1

[[service.publishers.mqtt]]
broker = "localhost:1883"
topic = "countdown"
filter = ["timer.changed"]

[[service.publishers.mqtt]]
enabled = false
broker = "other:1883"
topic = "off"

[[service.publishers.mqtt]]
broker = ""
topic = "missing-broker"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.CfgFile), []byte(data), 0o600))
	cfg, err := config.NewConfig(dir, config.BaseDefaults)
	require.NoError(t, err)

	pubs := FromConfig(cfg)
	require.Len(t, pubs, 1)
	assert.Equal(t, "localhost:1883", pubs[0].broker)
	assert.Equal(t, "countdown", pubs[0].topic)
	assert.Equal(t, []string{models.NotificationTimerChanged}, pubs[0].filter)
}
