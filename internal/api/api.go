/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the HTTP surface of the day-plan store: the day
// aggregate read, partial slot updates, and the per-day change feed.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/campday/internal/auth"
	"github.com/friendsincode/campday/internal/cache"
	"github.com/friendsincode/campday/internal/eventbus"
	"github.com/friendsincode/campday/internal/models"
)

// Error codes surfaced in the error envelope.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeValidation    = "VALIDATION_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// API exposes HTTP handlers.
type API struct {
	db        *gorm.DB
	cache     *cache.Cache
	feed      *eventbus.Feed
	jwtSecret []byte
	logger    zerolog.Logger
}

// New creates the API handler set.
func New(db *gorm.DB, cacheLayer *cache.Cache, feed *eventbus.Feed, jwtSecret []byte, logger zerolog.Logger) *API {
	return &API{
		db:        db,
		cache:     cacheLayer,
		feed:      feed,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Router builds the /api/v1 route tree.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/login", a.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(a.jwtSecret))

		r.Get("/days/{dayID}", a.handleGetDay)
		r.Get("/days/{dayID}/feed", a.handleDayFeed)
		r.Post("/days/{dayID}/slots", a.handleCreateSlot)
		r.Patch("/slots/{slotID}", a.handlePatchSlot)
		r.Delete("/slots/{slotID}", a.handleDeleteSlot)
		r.Get("/activities/{activityID}", a.handleGetActivity)
	})

	return r
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, map[string]any{"data": v})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": errorBody{Code: code, Message: message}})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid login payload")
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid credentials")
		return
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.Issue(a.jwtSecret, auth.Claims{UserID: user.ID, Role: user.Role}, 12*time.Hour)
	if err != nil {
		a.logger.Error().Err(err).Msg("issue token")
		writeError(w, http.StatusInternalServerError, CodeInternalError, "could not issue token")
		return
	}

	writeData(w, http.StatusOK, map[string]string{"token": token})
}
