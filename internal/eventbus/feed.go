/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus distributes slot-change notifications across instances.
package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/campday/internal/events"
)

// Mutation operations carried on the feed.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// SlotTable names the table the feed reports changes for.
const SlotTable = "slots"

// SlotChange describes one mutation to a day's slot rows. The payload is
// advisory only; consumers are expected to re-fetch the day aggregate.
type SlotChange struct {
	DayID  string    `json:"day_id"`
	SlotID string    `json:"slot_id"`
	Table  string    `json:"table"`
	Op     string    `json:"op"`
	At     time.Time `json:"at"`
}

// Feed publishes and delivers slot changes. With a NATS connection the feed
// spans instances; without one it degrades to the in-process bus so a single
// node still sees its own changes.
type Feed struct {
	conn     *nats.Conn
	fallback *events.Bus
	logger   zerolog.Logger
}

// NewFeed connects to NATS when a URL is configured. Connection failures
// degrade to the in-process fallback rather than failing startup.
func NewFeed(natsURL string, logger zerolog.Logger) *Feed {
	f := &Feed{
		fallback: events.NewBus(),
		logger:   logger.With().Str("component", "eventbus").Logger(),
	}

	if natsURL == "" {
		f.logger.Info().Msg("NATS not configured, using in-process change feed")
		return f
	}

	conn, err := nats.Connect(natsURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		f.logger.Warn().Err(err).Msg("NATS unavailable, using in-process change feed")
		return f
	}

	f.conn = conn
	f.logger.Info().Str("url", natsURL).Msg("NATS change feed connected")
	return f
}

// Distributed reports whether changes reach other instances.
func (f *Feed) Distributed() bool {
	return f.conn != nil
}

func daySubject(dayID string) string {
	return fmt.Sprintf("campday.%s.%s", SlotTable, dayID)
}

// PublishSlotChange emits a change notification for the day's slot table.
func (f *Feed) PublishSlotChange(change SlotChange) {
	if change.Table == "" {
		change.Table = SlotTable
	}
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}

	if f.conn != nil {
		data, err := json.Marshal(change)
		if err != nil {
			f.logger.Error().Err(err).Msg("marshal slot change")
			return
		}
		if err := f.conn.Publish(daySubject(change.DayID), data); err != nil {
			f.logger.Warn().Err(err).Str("day_id", change.DayID).Msg("publish slot change")
		}
		return
	}

	f.fallback.Publish(fallbackEventType(change.Op), events.Payload{
		"day_id":  change.DayID,
		"slot_id": change.SlotID,
		"table":   change.Table,
		"op":      change.Op,
	})
}

// SubscribeDay delivers every slot change for one day to fn until the returned
// cancel function is called. fn runs on the feed's delivery goroutine.
func (f *Feed) SubscribeDay(dayID string, fn func(SlotChange)) (func(), error) {
	if f.conn != nil {
		sub, err := f.conn.Subscribe(daySubject(dayID), func(msg *nats.Msg) {
			var change SlotChange
			if err := json.Unmarshal(msg.Data, &change); err != nil {
				f.logger.Debug().Err(err).Msg("drop malformed slot change")
				return
			}
			fn(change)
		})
		if err != nil {
			return nil, fmt.Errorf("subscribe day feed: %w", err)
		}
		return func() { _ = sub.Unsubscribe() }, nil
	}

	types := []events.EventType{events.EventSlotCreated, events.EventSlotUpdated, events.EventSlotDeleted}
	subs := make([]events.Subscriber, len(types))
	done := make(chan struct{})
	for i, et := range types {
		subs[i] = f.fallback.Subscribe(et)
	}
	for i := range subs {
		sub := subs[i]
		go func() {
			for {
				select {
				case <-done:
					return
				case payload, ok := <-sub:
					if !ok {
						return
					}
					change := changeFromPayload(payload)
					if change.DayID != dayID {
						continue
					}
					fn(change)
				}
			}
		}()
	}

	cancel := func() {
		close(done)
		for i, et := range types {
			f.fallback.Unsubscribe(et, subs[i])
		}
	}
	return cancel, nil
}

// Close drains the NATS connection.
func (f *Feed) Close() {
	if f.conn != nil {
		if err := f.conn.Drain(); err != nil {
			f.logger.Debug().Err(err).Msg("drain nats connection")
		}
	}
}

func fallbackEventType(op string) events.EventType {
	switch op {
	case OpInsert:
		return events.EventSlotCreated
	case OpDelete:
		return events.EventSlotDeleted
	default:
		return events.EventSlotUpdated
	}
}

func changeFromPayload(payload events.Payload) SlotChange {
	change := SlotChange{Table: SlotTable}
	if v, ok := payload["day_id"].(string); ok {
		change.DayID = v
	}
	if v, ok := payload["slot_id"].(string); ok {
		change.SlotID = v
	}
	if v, ok := payload["table"].(string); ok {
		change.Table = v
	}
	if v, ok := payload["op"].(string); ok {
		change.Op = v
	}
	return change
}
