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

// Package broker fans the service's single notification stream out to every
// consumer: API clients, MQTT publishers and anything else that subscribes.
package broker

import (
	"context"
	"slices"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

type subscriber struct {
	ch      chan models.Notification
	methods []string
}

func (s subscriber) wants(method string) bool {
	return len(s.methods) == 0 || slices.Contains(s.methods, method)
}

// Broker copies every notification read from its source to each
// subscriber. A subscriber whose buffer is full misses the notification;
// it never holds up the others.
type Broker struct {
	ctx         context.Context
	source      <-chan models.Notification
	subscribers map[int]subscriber
	done        chan struct{}
	mu          syncutil.RWMutex
	nextID      int
	closed      bool
}

func NewBroker(ctx context.Context, source <-chan models.Notification) *Broker {
	return &Broker{
		ctx:         ctx,
		source:      source,
		subscribers: make(map[int]subscriber),
		done:        make(chan struct{}),
	}
}

// Start runs the fan-out loop until the source closes or the context ends,
// after which every subscriber channel is closed.
func (b *Broker) Start() {
	go func() {
		defer close(b.done)
		for {
			select {
			case n, ok := <-b.source:
				if !ok {
					log.Debug().Msg("broker: source closed")
					b.closeAll()
					return
				}
				b.broadcast(n)
			case <-b.ctx.Done():
				log.Debug().Msg("broker: context done")
				b.closeAll()
				return
			}
		}
	}()
}

// Done is closed once the fan-out loop has exited.
func (b *Broker) Done() <-chan struct{} {
	return b.done
}

func (b *Broker) broadcast(n models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subscribers {
		if !sub.wants(n.Method) {
			continue
		}
		select {
		case sub.ch <- n:
		default:
			log.Warn().
				Int("subscriber", id).
				Str("method", n.Method).
				Msg("broker: subscriber full, dropping notification")
		}
	}
}

// Subscribe registers a consumer. With no methods given it receives
// everything, otherwise only the listed notification methods. Subscribing
// after shutdown returns a closed channel.
func (b *Broker) Subscribe(bufferSize int, methods ...string) (notifications <-chan models.Notification, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.Notification, bufferSize)
	id = b.nextID
	b.nextID++

	if b.closed {
		close(ch)
		return ch, id
	}

	b.subscribers[id] = subscriber{ch: ch, methods: slices.Clone(methods)}
	log.Debug().Int("subscriber", id).Int("buffer", bufferSize).Strs("methods", methods).
		Msg("broker: subscribed")
	return ch, id
}

// Unsubscribe removes the consumer and closes its channel. Unknown IDs are
// ignored.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subscribers[id]
	if !ok {
		return
	}
	delete(b.subscribers, id)
	close(sub.ch)
	log.Debug().Int("subscriber", id).Msg("broker: unsubscribed")
}

func (b *Broker) Stop() {
	b.closeAll()
}

func (b *Broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		close(sub.ch)
	}
	b.subscribers = make(map[int]subscriber)
	b.closed = true
}
