/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/friendsincode/campday/internal/eventbus"
	"github.com/friendsincode/campday/internal/models"
	"github.com/friendsincode/campday/internal/telemetry"
)

// slotPatch carries the subset of slot fields a PATCH may touch. Pointer
// fields distinguish "absent" from "set to zero value".
type slotPatch struct {
	OrderInDay *int    `json:"orderInDay"`
	Start      *string `json:"start"`
	End        *string `json:"end"`
	Title      *string `json:"title"`
	ActivityID *string `json:"activityId"`
	Notes      *string `json:"notes"`
}

// handlePatchSlot applies a partial update to one slot. A requested order
// value outside 1..N is trimmed into range; the response body carries the
// order actually stored so editors can reconcile.
func (a *API) handlePatchSlot(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")

	var slot models.Slot
	if err := a.db.First(&slot, "id = ?", slotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "slot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternalError, "could not load slot")
		return
	}

	var patch slotPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid patch payload")
		return
	}

	if patch.Start != nil {
		slot.Start = *patch.Start
	}
	if patch.End != nil {
		slot.End = *patch.End
	}
	if patch.Title != nil {
		slot.Title = *patch.Title
	}
	if patch.ActivityID != nil {
		slot.ActivityID = *patch.ActivityID
	}
	if patch.Notes != nil {
		slot.Notes = *patch.Notes
	}
	if patch.OrderInDay != nil {
		var count int64
		if err := a.db.Model(&models.Slot{}).Where("day_id = ?", slot.DayID).Count(&count).Error; err != nil {
			writeError(w, http.StatusInternalServerError, CodeInternalError, "could not count slots")
			return
		}
		order := *patch.OrderInDay
		if order < 1 {
			order = 1
		}
		if order > int(count) {
			order = int(count)
		}
		slot.OrderInDay = order
	}

	if err := slot.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	if err := a.db.Save(&slot).Error; err != nil {
		telemetry.SlotWritesTotal.WithLabelValues(eventbus.OpUpdate, "error").Inc()
		a.logger.Error().Err(err).Str("slot_id", slotID).Msg("save slot")
		writeError(w, http.StatusInternalServerError, CodeInternalError, "could not save slot")
		return
	}
	telemetry.SlotWritesTotal.WithLabelValues(eventbus.OpUpdate, "ok").Inc()

	a.afterSlotMutation(r, slot.DayID, slot.ID, eventbus.OpUpdate)

	writeData(w, http.StatusOK, slot)
}

// handleDeleteSlot removes a slot and compacts the remaining order values
// back to a dense 1..N sequence.
func (a *API) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")

	var slot models.Slot
	if err := a.db.First(&slot, "id = ?", slotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "slot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternalError, "could not load slot")
		return
	}

	if err := a.db.Delete(&slot).Error; err != nil {
		telemetry.SlotWritesTotal.WithLabelValues(eventbus.OpDelete, "error").Inc()
		writeError(w, http.StatusInternalServerError, CodeInternalError, "could not delete slot")
		return
	}
	telemetry.SlotWritesTotal.WithLabelValues(eventbus.OpDelete, "ok").Inc()

	if err := a.compactOrders(slot.DayID); err != nil {
		a.logger.Warn().Err(err).Str("day_id", slot.DayID).Msg("compact slot orders")
	}

	a.afterSlotMutation(r, slot.DayID, slot.ID, eventbus.OpDelete)

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) compactOrders(dayID string) error {
	var slots []models.Slot
	if err := a.db.Where("day_id = ?", dayID).Order("order_in_day ASC").Find(&slots).Error; err != nil {
		return err
	}
	for i := range slots {
		want := i + 1
		if slots[i].OrderInDay == want {
			continue
		}
		if err := a.db.Model(&models.Slot{}).Where("id = ?", slots[i].ID).
			Update("order_in_day", want).Error; err != nil {
			return err
		}
	}
	return nil
}
