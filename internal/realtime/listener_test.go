/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package realtime

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/campday/internal/eventbus"
)

func TestListenerFiresOnOwnDayOnly(t *testing.T) {
	feed := eventbus.NewFeed("", zerolog.Nop())
	defer feed.Close()

	fired := make(chan struct{}, 8)
	l := Listen(feed, "day-1", func() { fired <- struct{}{} }, zerolog.Nop())
	defer l.Close()

	feed.PublishSlotChange(eventbus.SlotChange{DayID: "day-2", SlotID: "s9", Op: eventbus.OpUpdate})
	feed.PublishSlotChange(eventbus.SlotChange{DayID: "day-1", SlotID: "s1", Op: eventbus.OpUpdate})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("expected a notification for day-1")
	}

	select {
	case <-fired:
		t.Fatal("received a notification for another day")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestListenerFiresForEveryMutationOp(t *testing.T) {
	feed := eventbus.NewFeed("", zerolog.Nop())
	defer feed.Close()

	fired := make(chan struct{}, 8)
	l := Listen(feed, "day-1", func() { fired <- struct{}{} }, zerolog.Nop())
	defer l.Close()

	for _, op := range []string{eventbus.OpInsert, eventbus.OpUpdate, eventbus.OpDelete} {
		feed.PublishSlotChange(eventbus.SlotChange{DayID: "day-1", SlotID: "s1", Op: op})
	}

	for i := 0; i < 3; i++ {
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatalf("expected 3 notifications, got %d", i)
		}
	}
}

func TestListenerStopsAfterClose(t *testing.T) {
	feed := eventbus.NewFeed("", zerolog.Nop())
	defer feed.Close()

	fired := make(chan struct{}, 8)
	l := Listen(feed, "day-1", func() { fired <- struct{}{} }, zerolog.Nop())
	l.Close()
	l.Close() // idempotent

	feed.PublishSlotChange(eventbus.SlotChange{DayID: "day-1", SlotID: "s1", Op: eventbus.OpUpdate})

	select {
	case <-fired:
		t.Fatal("received a notification after Close")
	case <-time.After(50 * time.Millisecond):
	}
}
