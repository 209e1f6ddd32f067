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

// Package publishers forwards notifications to external systems. The MQTT
// publisher lets lighting desks, stream tools and home automation follow a
// countdown without holding a WebSocket open.
package publishers

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250
)

// retainedMethods describe current state rather than an event, so the
// broker keeps the last one for clients that subscribe later.
var retainedMethods = []string{
	models.NotificationTimerChanged,
	models.NotificationEntertainmentPhase,
	models.NotificationEntertainmentUsed,
	models.NotificationEntertainmentToggle,
}

// MQTTPublisher publishes notification params to
// <topic>/<session>/<method>, with the method's dots turned into topic
// levels. Notifications without a session go to <topic>/<method>.
type MQTTPublisher struct {
	client    mqtt.Client
	newClient func(*mqtt.ClientOptions) mqtt.Client
	stopCh    chan struct{}
	broker    string
	topic     string
	filter    []string
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// NewMQTTPublisher creates a publisher. An empty filter publishes every
// notification, otherwise only the listed methods.
func NewMQTTPublisher(broker, topic string, filter []string) *MQTTPublisher {
	return &MQTTPublisher{
		broker:    broker,
		topic:     strings.TrimSuffix(topic, "/"),
		filter:    filter,
		stopCh:    make(chan struct{}),
		newClient: mqtt.NewClient,
	}
}

// FromConfig returns a publisher for every enabled MQTT entry.
func FromConfig(cfg *config.Instance) []*MQTTPublisher {
	var pubs []*MQTTPublisher
	for _, c := range cfg.GetMQTTPublishers() {
		if c.Enabled != nil && !*c.Enabled {
			continue
		}
		if c.Broker == "" || c.Topic == "" {
			log.Warn().Str("broker", c.Broker).Str("topic", c.Topic).
				Msg("mqtt publisher: broker and topic are required, skipping")
			continue
		}
		pubs = append(pubs, NewMQTTPublisher(c.Broker, c.Topic, c.Filter))
	}
	return pubs
}

// Start connects and begins publishing from notifications in the
// background.
func (p *MQTTPublisher) Start(notifications <-chan models.Notification) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(p.broker))
	opts.SetClientID("zaparoo-countdown-" + uuid.New().String()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.OnConnect = func(_ mqtt.Client) {
		log.Info().Msgf("mqtt publisher: connected to %s", p.broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt publisher: connection lost")
	}

	p.client = p.newClient(opts)
	token := p.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info().Msgf("mqtt publisher: publishing to %s (topic: %s)", p.broker, p.topic)
	p.wg.Add(1)
	go p.publishNotifications(notifications)
	return nil
}

// Stop ends publishing and disconnects. It is safe to call more than once.
func (p *MQTTPublisher) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
		if p.client != nil && p.client.IsConnected() {
			log.Debug().Msg("mqtt publisher: disconnecting")
			p.client.Disconnect(disconnectQuiesce)
		}
	})
}

func (p *MQTTPublisher) publishNotifications(notifications <-chan models.Notification) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case n, ok := <-notifications:
			if !ok {
				log.Debug().Msg("mqtt publisher: notification channel closed")
				return
			}
			if !p.matchesFilter(n.Method) {
				continue
			}
			p.publish(n)
		}
	}
}

//nolint:gocritic // notification passed by value from the channel
func (p *MQTTPublisher) publish(n models.Notification) {
	payload := []byte(n.Params)
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	topic := p.topicFor(n)
	retained := slices.Contains(retainedMethods, n.Method)
	token := p.client.Publish(topic, 0, retained, payload)
	if token.Wait() && token.Error() != nil {
		log.Error().Err(token.Error()).Str("topic", topic).Msg("mqtt publisher: failed to publish")
		return
	}
	log.Debug().Str("topic", topic).Msgf("mqtt publisher: published %s", n.Method)
}

//nolint:gocritic // notification passed by value from the channel
func (p *MQTTPublisher) topicFor(n models.Notification) string {
	method := strings.ReplaceAll(n.Method, ".", "/")

	var params struct {
		Session string `json:"session"`
	}
	if len(n.Params) > 0 && json.Unmarshal(n.Params, &params) == nil && validTopicLevel(params.Session) {
		return p.topic + "/" + params.Session + "/" + method
	}
	return p.topic + "/" + method
}

func (p *MQTTPublisher) matchesFilter(method string) bool {
	return len(p.filter) == 0 || slices.Contains(p.filter, method)
}

// validTopicLevel rejects session IDs that would change the topic shape.
func validTopicLevel(s string) bool {
	return s != "" && !strings.ContainsAny(s, "/+#")
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}
