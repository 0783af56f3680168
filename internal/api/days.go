/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	ws "nhooyr.io/websocket"

	"github.com/friendsincode/campday/internal/eventbus"
	"github.com/friendsincode/campday/internal/models"
	"github.com/friendsincode/campday/internal/telemetry"
)

// handleGetDay serves the day aggregate with its slots in display order.
// The response carries an ETag so editors can detect stale local copies.
func (a *API) handleGetDay(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayID")

	if day, ok := a.cache.GetDay(r.Context(), dayID); ok {
		w.Header().Set("ETag", day.ETag())
		writeData(w, http.StatusOK, day)
		return
	}

	day, err := a.loadDay(dayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "day not found")
			return
		}
		a.logger.Error().Err(err).Str("day_id", dayID).Msg("load day")
		writeError(w, http.StatusInternalServerError, CodeInternalError, "could not load day")
		return
	}

	_ = a.cache.SetDay(r.Context(), day)

	w.Header().Set("ETag", day.ETag())
	writeData(w, http.StatusOK, day)
}

func (a *API) loadDay(dayID string) (*models.Day, error) {
	var day models.Day
	if err := a.db.First(&day, "id = ?", dayID).Error; err != nil {
		return nil, err
	}
	if err := a.db.Where("day_id = ?", dayID).Order("order_in_day ASC").Find(&day.Slots).Error; err != nil {
		return nil, err
	}
	day.ComputeTotalMinutes()
	return &day, nil
}

type createSlotRequest struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	Title      string `json:"title"`
	ActivityID string `json:"activityId"`
	Notes      string `json:"notes"`
}

// handleCreateSlot appends a slot at the end of the day's sequence.
func (a *API) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayID")

	var day models.Day
	if err := a.db.First(&day, "id = ?", dayID).Error; err != nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "day not found")
		return
	}

	var req createSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid slot payload")
		return
	}

	var count int64
	if err := a.db.Model(&models.Slot{}).Where("day_id = ?", dayID).Count(&count).Error; err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternalError, "could not count slots")
		return
	}

	slot := models.Slot{
		ID:         uuid.NewString(),
		DayID:      dayID,
		OrderInDay: int(count) + 1,
		Start:      req.Start,
		End:        req.End,
		Title:      req.Title,
		ActivityID: req.ActivityID,
		Notes:      req.Notes,
	}
	if err := slot.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	if err := a.db.Create(&slot).Error; err != nil {
		telemetry.SlotWritesTotal.WithLabelValues(eventbus.OpInsert, "error").Inc()
		a.logger.Error().Err(err).Str("day_id", dayID).Msg("create slot")
		writeError(w, http.StatusInternalServerError, CodeInternalError, "could not create slot")
		return
	}
	telemetry.SlotWritesTotal.WithLabelValues(eventbus.OpInsert, "ok").Inc()

	a.afterSlotMutation(r, dayID, slot.ID, eventbus.OpInsert)

	writeData(w, http.StatusCreated, slot)
}

// afterSlotMutation bumps the day marker, drops the cached aggregate, and
// notifies feed subscribers.
func (a *API) afterSlotMutation(r *http.Request, dayID, slotID, op string) {
	if err := a.db.Model(&models.Day{}).Where("id = ?", dayID).
		Update("updated_at", time.Now()).Error; err != nil {
		a.logger.Warn().Err(err).Str("day_id", dayID).Msg("bump day marker")
	}
	_ = a.cache.InvalidateDay(r.Context(), dayID)

	a.feed.PublishSlotChange(eventbus.SlotChange{DayID: dayID, SlotID: slotID, Op: op})
	telemetry.FeedEventsTotal.Inc()
}

// handleDayFeed bridges the change feed onto a WebSocket for browser clients.
func (a *API) handleDayFeed(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayID")

	conn, err := ws.Accept(w, r, nil)
	if err != nil {
		a.logger.Debug().Err(err).Msg("websocket accept")
		return
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	changes := make(chan eventbus.SlotChange, 16)
	cancel, err := a.feed.SubscribeDay(dayID, func(change eventbus.SlotChange) {
		select {
		case changes <- change:
		default:
		}
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("day_id", dayID).Msg("subscribe day feed")
		return
	}
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-changes:
			data, err := json.Marshal(change)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, ws.MessageText, data); err != nil {
				return
			}
		}
	}
}
