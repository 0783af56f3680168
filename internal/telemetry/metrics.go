/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts HTTP requests by method, endpoint and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campday_api_requests_total",
		Help: "Total HTTP API requests.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campday_api_request_duration_seconds",
		Help:    "HTTP API request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections tracks in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campday_api_active_connections",
		Help: "In-flight HTTP API requests.",
	})

	// SlotWritesTotal counts slot mutations by operation and outcome.
	SlotWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campday_slot_writes_total",
		Help: "Slot mutations processed by the API.",
	}, []string{"op", "outcome"})

	// FeedEventsTotal counts change-feed notifications published.
	FeedEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campday_feed_events_total",
		Help: "Slot change notifications published to the feed.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
