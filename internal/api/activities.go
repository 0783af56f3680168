/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/friendsincode/campday/internal/models"
)

// handleGetActivity serves the small summary record linked slots display.
func (a *API) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	activityID := chi.URLParam(r, "activityID")

	if summary, ok := a.cache.GetActivity(r.Context(), activityID); ok {
		writeData(w, http.StatusOK, summary)
		return
	}

	var activity models.Activity
	if err := a.db.First(&activity, "id = ?", activityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "activity not found")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternalError, "could not load activity")
		return
	}

	summary := activity.Summary()
	_ = a.cache.SetActivity(r.Context(), summary)

	writeData(w, http.StatusOK, summary)
}
