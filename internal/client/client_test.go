package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/campday/internal/models"
)

func TestFetchDayReturnsAggregateAndMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/days/day-1" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Fatalf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("ETag", "abc-3")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": models.Day{
			ID:    "day-1",
			Slots: []models.Slot{{ID: "s1", OrderInDay: 1}},
		}})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", zerolog.Nop())
	res, err := c.FetchDay(context.Background(), "day-1")
	if err != nil {
		t.Fatalf("fetch day: %v", err)
	}
	if res.Day.ID != "day-1" || len(res.Day.Slots) != 1 {
		t.Fatalf("unexpected day: %+v", res.Day)
	}
	if res.ETag != "abc-3" {
		t.Fatalf("unexpected etag: %q", res.ETag)
	}
}

func TestErrorEnvelopeIsSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{
			"code":    "VALIDATION_ERROR",
			"message": "end must be after start",
		}})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", zerolog.Nop())
	_, err := c.PatchSlot(context.Background(), "s1", map[string]any{"end": "08:00"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %s", apiErr.Code)
	}
	if apiErr.Message != "end must be after start" {
		t.Fatalf("expected server message verbatim, got %q", apiErr.Message)
	}
}

func TestStatusCodesSynthesizeErrorCodes(t *testing.T) {
	cases := []struct {
		status int
		code   ErrorCode
	}{
		{http.StatusNotFound, CodeNotFound},
		{http.StatusUnauthorized, CodeUnauthorized},
		{http.StatusBadGateway, CodeInternalError},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte("not json"))
		}))

		c := New(srv.URL, "tok", zerolog.Nop())
		_, err := c.FetchDay(context.Background(), "day-1")
		srv.Close()

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: expected APIError, got %v", tc.status, err)
		}
		if apiErr.Code != tc.code {
			t.Fatalf("status %d: expected %s, got %s", tc.status, tc.code, apiErr.Code)
		}
	}
}

func TestInvalidShapeOnSuccessIsInternalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected": true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", zerolog.Nop())
	_, err := c.FetchDay(context.Background(), "day-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != CodeInternalError {
		t.Fatalf("expected INTERNAL_ERROR, got %s", apiErr.Code)
	}
	if apiErr.Message != "server returned an invalid response" {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL, "tok", zerolog.Nop())
	_, err := c.FetchDay(context.Background(), "day-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != CodeNetworkError {
		t.Fatalf("expected NETWORK_ERROR, got %s", apiErr.Code)
	}
}
