/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package editor

import (
	"context"
	"time"

	"github.com/friendsincode/campday/internal/models"
)

// pendingEdit is the per-slot mutation record accumulated between "edit
// received" and "network call dispatched". At most one exists per slot.
type pendingEdit struct {
	fields map[string]any
	timer  *time.Timer
}

// Queue merges a partial edit into the slot's pending record, restarts the
// debounce timer, and reports saving immediately so the UI shows progress
// before the network is touched.
//
// State machine per slot: idle --edit--> saving --success--> saved --hold-->
// idle; saving --failure--> error. A new edit from idle or error starts a
// fresh cycle.
func (s *Session) Queue(slotID string, fields map[string]any) {
	if len(fields) == 0 {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	found := false
	for i := range s.slots {
		if s.slots[i].ID == slotID {
			applyFields(&s.slots[i], fields)
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		s.logger.Debug().Str("slot_id", slotID).Msg("ignoring edit for unknown slot")
		return
	}

	if hold, ok := s.holds[slotID]; ok {
		hold.Stop()
		delete(s.holds, slotID)
	}

	rec, ok := s.pending[slotID]
	if !ok {
		rec = &pendingEdit{fields: make(map[string]any)}
		s.pending[slotID] = rec
	} else {
		rec.timer.Stop()
	}
	// Last write wins per field.
	for name, value := range fields {
		rec.fields[name] = value
	}
	rec.timer = time.AfterFunc(s.opts.DebounceInterval, func() { s.flush(slotID) })

	snapshot := copySlots(s.slots)
	s.mu.Unlock()

	s.emitSequence(snapshot)
	s.emitStatus(slotID, Status{State: StateSaving})
}

// flush sends the accumulated record as one merged partial update. The record
// is cleared before dispatch so an edit arriving mid-flight starts an
// independent follow-up cycle instead of being lost.
func (s *Session) flush(slotID string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	rec, ok := s.pending[slotID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, slotID)
	s.gen[slotID]++
	cycle := s.gen[slotID]
	fields := rec.fields
	s.mu.Unlock()

	go s.dispatch(slotID, cycle, fields)
}

func (s *Session) dispatch(slotID string, cycle uint64, fields map[string]any) {
	slot, err := s.api.PatchSlot(context.Background(), slotID, fields)

	s.mu.Lock()
	if s.closed || s.gen[slotID] != cycle {
		// Owner disposed the session or a newer cycle superseded this one.
		s.mu.Unlock()
		return
	}

	if err != nil {
		s.mu.Unlock()
		s.logger.Warn().Err(err).Str("slot_id", slotID).Msg("autosave failed")
		// Failed edits are discarded, not retried: the next user edit starts
		// over from a clean record.
		s.emitStatus(slotID, Status{State: StateError, Message: errorMessage(err)})
		return
	}

	s.adoptServerSlot(*slot)
	s.holds[slotID] = time.AfterFunc(s.opts.SavedDisplayHold, func() { s.settle(slotID, cycle) })
	snapshot := copySlots(s.slots)
	s.mu.Unlock()

	s.emitSequence(snapshot)
	s.emitStatus(slotID, Status{State: StateSaved})
	if s.hooks.OnServerApplied != nil {
		s.hooks.OnServerApplied(*slot)
	}
}

// settle moves a unit from saved back to idle once the display hold elapses,
// unless a newer cycle took over.
func (s *Session) settle(unitID string, cycle uint64) {
	s.mu.Lock()
	if s.closed || s.gen[unitID] != cycle {
		s.mu.Unlock()
		return
	}
	if _, ok := s.pending[unitID]; ok {
		// A fresh edit is already debouncing; it owns the visible state now.
		s.mu.Unlock()
		return
	}
	delete(s.holds, unitID)
	s.mu.Unlock()

	s.emitStatus(unitID, Status{State: StateIdle})
}

// adoptServerSlot folds the confirmed snapshot into the canonical sequence.
// Fields with a newer pending edit keep the local value; the follow-up cycle
// will persist them.
func (s *Session) adoptServerSlot(server models.Slot) {
	for i := range s.slots {
		if s.slots[i].ID != server.ID {
			continue
		}
		adopted := server
		if rec, ok := s.pending[server.ID]; ok {
			applyFieldsFrom(&adopted, s.slots[i], rec.fields)
		}
		s.slots[i] = adopted
		break
	}
	models.SortByOrder(s.slots)
}

// applyFieldsFrom copies the locally edited fields from local onto dst.
func applyFieldsFrom(dst *models.Slot, local models.Slot, fields map[string]any) {
	for name := range fields {
		switch name {
		case "start":
			dst.Start = local.Start
		case "end":
			dst.End = local.End
		case "title":
			dst.Title = local.Title
		case "activityId":
			dst.ActivityID = local.ActivityID
		case "notes":
			dst.Notes = local.Notes
		case "orderInDay":
			dst.OrderInDay = local.OrderInDay
		}
	}
}
