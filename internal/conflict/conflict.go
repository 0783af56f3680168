/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package conflict classifies disagreements between a locally held slot and
// the server's current copy of it.
package conflict

import "github.com/friendsincode/campday/internal/models"

// Kind is the classification of a local/server comparison.
type Kind string

const (
	// KindNone means the copies agree.
	KindNone Kind = "none"
	// KindStale means the server moved on but nothing user-visible differs,
	// or nothing local is at risk; the caller may silently adopt server state.
	KindStale Kind = "stale"
	// KindConflict means local unsaved edits disagree with the server on at
	// least one field and a resolution prompt is warranted.
	KindConflict Kind = "conflict"
)

// Snapshot pairs a slot with the version marker it was fetched under.
type Snapshot struct {
	Slot   models.Slot
	Marker string
}

// Result carries the classification and, for conflicts, the differing fields.
type Result struct {
	Kind   Kind
	Fields []string
}

// Detect compares a local snapshot against the server's. Field values decide
// the outcome, not markers alone: two snapshots with different markers but
// identical fields are stale, not conflicting, so users are never prompted
// over a no-op write.
func Detect(local, server Snapshot, localDirty bool) Result {
	fields := diffFields(local.Slot, server.Slot)

	if len(fields) == 0 {
		if local.Marker != server.Marker {
			return Result{Kind: KindStale}
		}
		return Result{Kind: KindNone}
	}

	if !localDirty {
		// Server changed underneath a clean local copy; nothing to lose.
		return Result{Kind: KindStale}
	}

	return Result{Kind: KindConflict, Fields: fields}
}

// diffFields returns the user-visible fields that differ, in a stable order.
func diffFields(local, server models.Slot) []string {
	var fields []string
	if local.Start != server.Start {
		fields = append(fields, "start")
	}
	if local.End != server.End {
		fields = append(fields, "end")
	}
	if local.OrderInDay != server.OrderInDay {
		fields = append(fields, "orderInDay")
	}
	if local.ActivityID != server.ActivityID {
		fields = append(fields, "activityId")
	}
	if local.Title != server.Title {
		fields = append(fields, "title")
	}
	if local.Notes != server.Notes {
		fields = append(fields, "notes")
	}
	return fields
}
