/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package editor hosts the day editing session: the autosave queue that
// coalesces field edits into minimal writes, and the reorder controller that
// persists drag-and-drop moves optimistically with rollback. The session owns
// the canonical in-memory slot sequence; every other component receives it as
// an argument and reports results upward.
package editor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/campday/internal/client"
	"github.com/friendsincode/campday/internal/models"
)

// SaveState is the visible persistence state of one editable unit.
type SaveState string

const (
	StateIdle   SaveState = "idle"
	StateSaving SaveState = "saving"
	StateSaved  SaveState = "saved"
	StateError  SaveState = "error"
)

// ReorderUnit is the status unit covering whole-list reorders, as opposed to
// a single slot's field edits.
const ReorderUnit = "reorder"

// Status is a save-state transition reported to the owner.
type Status struct {
	State   SaveState
	Message string
}

// SlotWriter is the slice of the fetch client the session needs.
type SlotWriter interface {
	PatchSlot(ctx context.Context, slotID string, fields map[string]any) (*models.Slot, error)
}

// Hooks are the owner's callbacks. All hooks are invoked outside the
// session's lock and may be nil.
type Hooks struct {
	// OnStatus reports save-state transitions per unit (slot ID or ReorderUnit).
	OnStatus func(unitID string, status Status)
	// OnSequence hands the owner the new canonical slot sequence to render.
	OnSequence func(slots []models.Slot)
	// OnServerApplied delivers the server's confirmed snapshot after a save so
	// derived fields the server normalized can be reconciled.
	OnServerApplied func(slot models.Slot)
}

// Options tune the session's timing.
type Options struct {
	DebounceInterval time.Duration // quiet period before a merged write, default 650ms
	SavedDisplayHold time.Duration // how long "saved" stays visible, default 800ms
}

const (
	defaultDebounce = 650 * time.Millisecond
	defaultHold     = 800 * time.Millisecond
)

// Session owns one day's editing state: the canonical slot sequence, one
// autosave queue, and one reorder controller, disposed together.
type Session struct {
	dayID  string
	api    SlotWriter
	hooks  Hooks
	opts   Options
	logger zerolog.Logger

	mu         sync.Mutex
	slots      []models.Slot
	pending    map[string]*pendingEdit
	holds      map[string]*time.Timer
	gen        map[string]uint64
	reordering bool
	closed     bool
}

// NewSession creates a session for one day. slots is the fetched sequence the
// session starts from.
func NewSession(dayID string, api SlotWriter, slots []models.Slot, hooks Hooks, opts Options, logger zerolog.Logger) *Session {
	if opts.DebounceInterval <= 0 {
		opts.DebounceInterval = defaultDebounce
	}
	if opts.SavedDisplayHold <= 0 {
		opts.SavedDisplayHold = defaultHold
	}

	s := &Session{
		dayID:   dayID,
		api:     api,
		hooks:   hooks,
		opts:    opts,
		logger:  logger.With().Str("component", "editor").Str("day_id", dayID).Logger(),
		pending: make(map[string]*pendingEdit),
		holds:   make(map[string]*time.Timer),
		gen:     make(map[string]uint64),
	}
	s.slots = copySlots(slots)
	models.SortByOrder(s.slots)
	return s
}

// Slots returns a copy of the canonical sequence.
func (s *Session) Slots() []models.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySlots(s.slots)
}

// SetSlots adopts a freshly fetched sequence as canonical truth, e.g. after a
// refetch triggered by an external change.
func (s *Session) SetSlots(slots []models.Slot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.slots = copySlots(slots)
	models.SortByOrder(s.slots)
	snapshot := copySlots(s.slots)
	s.mu.Unlock()

	s.emitSequence(snapshot)
}

// Dirty reports whether the slot has unsaved local edits, which feeds the
// conflict classification.
func (s *Session) Dirty(slotID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[slotID]
	return ok
}

// Reordering reports whether a reorder is persisting. Owners use this to
// suppress invalidation-triggered refetches mid-reorder.
func (s *Session) Reordering() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reordering
}

// Forget drops all tracking for a slot removed by an external delete.
func (s *Session) Forget(slotID string) {
	s.mu.Lock()
	if rec, ok := s.pending[slotID]; ok {
		rec.timer.Stop()
		delete(s.pending, slotID)
	}
	if hold, ok := s.holds[slotID]; ok {
		hold.Stop()
		delete(s.holds, slotID)
	}
	for i, slot := range s.slots {
		if slot.ID == slotID {
			s.slots = append(s.slots[:i], s.slots[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

// Close cancels outstanding debounce and hold timers and suppresses every
// later callback. In-flight network calls are not aborted; their results are
// ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, rec := range s.pending {
		rec.timer.Stop()
		delete(s.pending, id)
	}
	for id, hold := range s.holds {
		hold.Stop()
		delete(s.holds, id)
	}
}

func (s *Session) emitStatus(unitID string, status Status) {
	if s.hooks.OnStatus != nil {
		s.hooks.OnStatus(unitID, status)
	}
}

func (s *Session) emitSequence(slots []models.Slot) {
	if s.hooks.OnSequence != nil {
		s.hooks.OnSequence(slots)
	}
}

// errorMessage normalizes a failed write into a short user-facing message.
func errorMessage(err error) string {
	if apiErr, ok := err.(*client.APIError); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return "could not save changes"
}

func copySlots(slots []models.Slot) []models.Slot {
	out := make([]models.Slot, len(slots))
	copy(out, slots)
	return out
}

// applyFields writes a pending-mutation record onto a slot copy.
func applyFields(slot *models.Slot, fields map[string]any) {
	for name, value := range fields {
		switch name {
		case "start":
			if v, ok := value.(string); ok {
				slot.Start = v
			}
		case "end":
			if v, ok := value.(string); ok {
				slot.End = v
			}
		case "title":
			if v, ok := value.(string); ok {
				slot.Title = v
			}
		case "activityId":
			if v, ok := value.(string); ok {
				slot.ActivityID = v
			}
		case "notes":
			if v, ok := value.(string); ok {
				slot.Notes = v
			}
		case "orderInDay":
			switch v := value.(type) {
			case int:
				slot.OrderInDay = v
			case float64:
				slot.OrderInDay = int(v)
			}
		}
	}
}
