/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package realtime notifies a day editing session that another client
// changed the day's slots. The listener carries no payload; the owner is
// expected to re-fetch truth from the store and debounce as needed.
package realtime

import (
	"github.com/rs/zerolog"

	"github.com/friendsincode/campday/internal/eventbus"
)

// Listener subscribes to one day's slot-change feed for its lifetime.
type Listener struct {
	cancel func()
	logger zerolog.Logger
}

// Listen subscribes onExternalChange to every slot change for dayID. When the
// feed cannot be established the listener degrades to a no-op: staleness is
// preferred over failing the editing surface for a convenience feature.
func Listen(feed *eventbus.Feed, dayID string, onExternalChange func(), logger zerolog.Logger) *Listener {
	l := &Listener{logger: logger.With().Str("component", "realtime").Str("day_id", dayID).Logger()}

	cancel, err := feed.SubscribeDay(dayID, func(change eventbus.SlotChange) {
		if change.Table != eventbus.SlotTable {
			return
		}
		l.logger.Debug().Str("slot_id", change.SlotID).Str("op", change.Op).Msg("external change")
		onExternalChange()
	})
	if err != nil {
		l.logger.Warn().Err(err).Msg("change feed unavailable, realtime invalidation disabled")
		return l
	}

	l.cancel = cancel
	return l
}

// Close tears the subscription down. Safe to call on a degraded listener.
func (l *Listener) Close() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
