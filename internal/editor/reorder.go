/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package editor

import (
	"context"
	"errors"
	"time"

	"github.com/friendsincode/campday/internal/models"
)

// ErrReorderInFlight is returned when a drag ends while a previous reorder is
// still persisting. One reorder at a time keeps the rollback target
// unambiguous.
var ErrReorderInFlight = errors.New("reorder already in progress")

// orderWrite is one slot whose position must be persisted.
type orderWrite struct {
	slotID   string
	newOrder int
}

// Reorder handles a drag-end: the slot sourceID is removed from the sequence
// and reinserted at targetID's index, every position is renumbered densely,
// and the new sequence is applied to the owner before any network call. Only
// slots whose position actually changed are persisted, strictly sequentially;
// the first failure aborts the rest and restores the pre-drag sequence.
//
// Dragging a slot onto itself or onto its current position, an unknown source
// or target, and lists shorter than two slots are all no-ops.
func (s *Session) Reorder(ctx context.Context, sourceID, targetID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if sourceID == targetID || len(s.slots) < 2 {
		s.mu.Unlock()
		return nil
	}

	srcIdx, dstIdx := -1, -1
	for i, slot := range s.slots {
		if slot.ID == sourceID {
			srcIdx = i
		}
		if slot.ID == targetID {
			dstIdx = i
		}
	}
	if srcIdx < 0 || dstIdx < 0 {
		s.mu.Unlock()
		return nil
	}

	if s.reordering {
		s.mu.Unlock()
		return ErrReorderInFlight
	}

	snapshot := copySlots(s.slots)
	next := arrayMove(s.slots, srcIdx, dstIdx)
	for i := range next {
		next[i].OrderInDay = i + 1
	}

	writes := diffOrders(snapshot, next)
	if len(writes) == 0 {
		s.mu.Unlock()
		return nil
	}

	s.reordering = true
	s.slots = next
	s.gen[ReorderUnit]++
	cycle := s.gen[ReorderUnit]
	applied := copySlots(next)
	s.mu.Unlock()

	// Optimistic apply: the reorder itself must feel instant.
	s.emitSequence(applied)
	s.emitStatus(ReorderUnit, Status{State: StateSaving})

	go s.persistReorder(ctx, cycle, snapshot, writes)
	return nil
}

// persistReorder writes the changed positions one at a time. Sequential
// dispatch bounds in-flight writes against the same day and makes the
// rollback unambiguous about which writes landed.
func (s *Session) persistReorder(ctx context.Context, cycle uint64, snapshot []models.Slot, writes []orderWrite) {
	for _, w := range writes {
		slot, err := s.api.PatchSlot(ctx, w.slotID, map[string]any{"orderInDay": w.newOrder})
		if err != nil {
			s.rollbackReorder(snapshot, err)
			return
		}

		if slot.OrderInDay != w.newOrder {
			// The server trimmed the requested position; adopt its value so
			// the sequence we finish with matches what was stored.
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			for i := range s.slots {
				if s.slots[i].ID == w.slotID {
					s.slots[i].OrderInDay = slot.OrderInDay
					break
				}
			}
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	models.SortByOrder(s.slots)
	s.reordering = false
	s.holds[ReorderUnit] = time.AfterFunc(s.opts.SavedDisplayHold, func() { s.settle(ReorderUnit, cycle) })
	applied := copySlots(s.slots)
	s.mu.Unlock()

	s.emitSequence(applied)
	s.emitStatus(ReorderUnit, Status{State: StateSaved})
}

func (s *Session) rollbackReorder(snapshot []models.Slot, cause error) {
	s.mu.Lock()
	if s.closed {
		s.reordering = false
		s.mu.Unlock()
		return
	}
	s.slots = copySlots(snapshot)
	s.reordering = false
	restored := copySlots(s.slots)
	s.mu.Unlock()

	s.logger.Warn().Err(cause).Str("day_id", s.dayID).Msg("reorder failed, rolling back")
	s.emitSequence(restored)
	s.emitStatus(ReorderUnit, Status{State: StateError, Message: errorMessage(cause)})
}

// arrayMove removes the element at src and reinserts it at dst, keeping the
// relative order of every untouched element.
func arrayMove(slots []models.Slot, src, dst int) []models.Slot {
	out := make([]models.Slot, 0, len(slots))
	moved := slots[src]
	for i, slot := range slots {
		if i != src {
			out = append(out, slot)
		}
	}
	if dst > len(out) {
		dst = len(out)
	}
	out = append(out[:dst], append([]models.Slot{moved}, out[dst:]...)...)
	return out
}

// diffOrders lists the slots whose position changed between two sequences, in
// the new sequence's order.
func diffOrders(prev, next []models.Slot) []orderWrite {
	prevOrder := make(map[string]int, len(prev))
	for _, slot := range prev {
		prevOrder[slot.ID] = slot.OrderInDay
	}

	var writes []orderWrite
	for _, slot := range next {
		if prevOrder[slot.ID] != slot.OrderInDay {
			writes = append(writes, orderWrite{slotID: slot.ID, newOrder: slot.OrderInDay})
		}
	}
	return writes
}
