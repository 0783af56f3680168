/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/campday/internal/api"
	"github.com/friendsincode/campday/internal/cache"
	"github.com/friendsincode/campday/internal/config"
	"github.com/friendsincode/campday/internal/db"
	"github.com/friendsincode/campday/internal/eventbus"
	"github.com/friendsincode/campday/internal/telemetry"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db    *gorm.DB
	cache *cache.Cache
	feed  *eventbus.Feed
	api   *api.API
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.MetricsMiddleware)
	// Skip timeout for the day change feed (long-lived websocket connections)
	router.Use(func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(60 * time.Second)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}
			timeout(next).ServeHTTP(w, r)
		})
	})

	srv := &Server{
		cfg:    cfg,
		logger: logger.With().Str("component", "server").Logger(),
		router: router,
	}

	if err := srv.initDependencies(); err != nil {
		closeErr := srv.Close()
		if closeErr != nil {
			srv.logger.Error().Err(closeErr).Msg("cleanup after failed init")
		}
		return nil, err
	}

	srv.configureRoutes()
	srv.startMetricsListener()

	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket feed connections stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisAddr = s.cfg.RedisAddr
	cacheCfg.RedisPassword = s.cfg.RedisPassword
	cacheCfg.RedisDB = s.cfg.RedisDB
	dayCache, err := cache.New(cacheCfg, s.logger)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache initialization failed, continuing without cache")
	} else {
		s.cache = dayCache
		s.DeferClose(func() error { return s.cache.Close() })
	}

	s.feed = eventbus.NewFeed(s.cfg.NATSURL, s.logger)
	s.DeferClose(func() error { s.feed.Close(); return nil })

	s.api = api.New(s.db, s.cache, s.feed, []byte(s.cfg.JWTSigningKey), s.logger)
	return nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Mount("/api/v1", s.api.Router())
}

// startMetricsListener serves /metrics on its own bind address so the scrape
// endpoint never shares the public port.
func (s *Server) startMetricsListener() {
	if s.cfg.MetricsBind == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	metricsSrv := &http.Server{
		Addr:         s.cfg.MetricsBind,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Info().Str("addr", s.cfg.MetricsBind).Msg("metrics listener started")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("metrics listener error")
		}
	}()
	s.DeferClose(metricsSrv.Close)
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}
