/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package client is the typed HTTP client the editing engine talks to the
// day-plan store through. Responses are normalized into APIError values; the
// client never retries; retry policy belongs to callers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/campday/internal/models"
)

// ErrorCode is the normalized error taxonomy surfaced to callers.
type ErrorCode string

const (
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeNetworkError  ErrorCode = "NETWORK_ERROR"
)

// APIError is the uniform failure result for every request.
type APIError struct {
	Code    ErrorCode
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client issues requests against the day-plan API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  zerolog.Logger
}

// New creates a client rooted at baseURL. The bearer token is sent on every
// request so session-bound resources stay reachable.
func New(baseURL, token string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger.With().Str("component", "client").Logger(),
	}
}

// DayResult is a fetched day aggregate plus its version marker.
type DayResult struct {
	Day  models.Day
	ETag string
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchDay reads one day aggregate with its slots.
func (c *Client) FetchDay(ctx context.Context, dayID string) (*DayResult, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/days/"+dayID, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var day models.Day
	if err := c.decode(resp, &day); err != nil {
		return nil, err
	}
	return &DayResult{Day: day, ETag: resp.Header.Get("ETag")}, nil
}

// PatchSlot sends a partial update built from the merged pending fields.
func (c *Client) PatchSlot(ctx context.Context, slotID string, fields map[string]any) (*models.Slot, error) {
	resp, err := c.do(ctx, http.MethodPatch, "/api/v1/slots/"+slotID, fields)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var slot models.Slot
	if err := c.decode(resp, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// FetchActivity reads one activity summary.
func (c *Client) FetchActivity(ctx context.Context, activityID string) (*models.ActivitySummary, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/activities/"+activityID, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var summary models.ActivitySummary
	if err := c.decode(resp, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Code: CodeInternalError, Message: "could not encode request body"}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &APIError{Code: CodeInternalError, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("transport failure")
		return nil, &APIError{Code: CodeNetworkError, Message: "network request failed"}
	}
	return resp, nil
}

// decode normalizes every response into either dest or an *APIError. A 2xx
// body that fails shape validation is an internal error, never a raw decode
// failure bubbled to the caller.
func (c *Client) decode(resp *http.Response, dest any) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &APIError{Code: CodeNetworkError, Message: "network request failed", Status: resp.StatusCode}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr != nil || len(env.Data) == 0 {
			return &APIError{Code: CodeInternalError, Message: "server returned an invalid response", Status: resp.StatusCode}
		}
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return &APIError{Code: CodeInternalError, Message: "server returned an invalid response", Status: resp.StatusCode}
		}
		return nil
	}

	if decodeErr == nil && env.Error != nil && env.Error.Code != "" {
		return &APIError{Code: ErrorCode(env.Error.Code), Message: env.Error.Message, Status: resp.StatusCode}
	}

	return &APIError{Code: codeForStatus(resp.StatusCode), Message: http.StatusText(resp.StatusCode), Status: resp.StatusCode}
}

func codeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnauthorized:
		return CodeUnauthorized
	default:
		return CodeInternalError
	}
}
