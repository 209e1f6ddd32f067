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

package broker

import (
	"context"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func receive(t *testing.T, ch <-chan models.Notification) models.Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return models.Notification{}
	}
}

func assertEmpty(t *testing.T, ch <-chan models.Notification) {
	t.Helper()
	select {
	case n := <-ch:
		t.Fatalf("unexpected notification %s", n.Method)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestBroker_SubscribeIDs(t *testing.T) {
	t.Parallel()

	b := NewBroker(context.Background(), make(chan models.Notification))

	ch, id := b.Subscribe(10)
	assert.NotNil(t, ch)
	assert.Equal(t, 0, id)

	_, id2 := b.Subscribe(5, models.NotificationTimerChanged)
	assert.Equal(t, 1, id2)
	assert.Len(t, b.subscribers, 2)
}

func TestBroker_Unsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBroker(context.Background(), make(chan models.Notification))
	ch, id := b.Subscribe(10)

	b.Unsubscribe(id)
	assert.Empty(t, b.subscribers)
	_, ok := <-ch
	assert.False(t, ok, "channel closed on unsubscribe")

	b.Unsubscribe(id)
}

func TestBroker_BroadcastAndFilter(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := NewBroker(ctx, source)
	b.Start()

	all, _ := b.Subscribe(10)
	overlay, _ := b.Subscribe(10, models.NotificationOverlayPlay, models.NotificationOverlayFadeOut)

	source <- models.Notification{Method: models.NotificationTimerChanged, Params: []byte(`{}`)}
	source <- models.Notification{Method: models.NotificationOverlayPlay, Params: []byte(`{}`)}

	assert.Equal(t, models.NotificationTimerChanged, receive(t, all).Method)
	assert.Equal(t, models.NotificationOverlayPlay, receive(t, all).Method)
	assert.Equal(t, models.NotificationOverlayPlay, receive(t, overlay).Method)
	assertEmpty(t, overlay)
}

func TestBroker_FullSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := NewBroker(ctx, source)
	b.Start()

	fast, _ := b.Subscribe(50)
	_, _ = b.Subscribe(1)

	for range 20 {
		source <- models.Notification{Method: models.NotificationTimerChanged}
	}
	for range 20 {
		receive(t, fast)
	}
}

//nolint:paralleltest // goleak checks every goroutine in the process
func TestBroker_ContextCancelClosesSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	b := NewBroker(ctx, make(chan models.Notification))
	b.Start()
	ch, _ := b.Subscribe(1)

	cancel()
	<-b.Done()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := b.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok, "subscribing after shutdown gives a closed channel")
}

//nolint:paralleltest // goleak checks every goroutine in the process
func TestBroker_SourceCloseStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := make(chan models.Notification)
	b := NewBroker(context.Background(), source)
	b.Start()
	ch, _ := b.Subscribe(1)

	close(source)
	<-b.Done()
	_, ok := <-ch
	require.False(t, ok)

	b.Stop()
}
