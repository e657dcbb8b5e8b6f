// Package server exposes the toolpath engine over HTTP: REST endpoints,
// JSON-RPC 2.0 on /jsonrpc and on a websocket, plus metrics and health.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"gcode-toolpath/pkg/engine"
	"gcode-toolpath/pkg/errors"
	"gcode-toolpath/pkg/log"
	"gcode-toolpath/pkg/metrics"
)

// DefaultMaxBodyBytes caps request bodies; sliced files rarely exceed it.
const DefaultMaxBodyBytes = 256 << 20

// Version is reported by server.info.
const Version = "0.3.0"

// Config holds server configuration.
type Config struct {
	// HTTP address to listen on (e.g., "127.0.0.1:7130")
	Addr string

	Engine *engine.Engine

	// MaxBodyBytes limits request bodies; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// Optional basic auth for /metrics.
	MetricsAuth metrics.HandlerConfig
}

// Server serves the engine API.
type Server struct {
	engine  *engine.Engine
	addr    string
	maxBody int64
	logger  *log.Logger
	mux     *http.ServeMux

	httpServer *http.Server

	wsUpgrader websocket.Upgrader
	sessions   map[int64]*session
	sessionsMu sync.RWMutex
	nextWSID   int64

	running   atomic.Bool
	startTime time.Time
}

// New creates a server. A nil engine gets default settings and no
// template store.
func New(cfg Config) *Server {
	eng := cfg.Engine
	if eng == nil {
		eng = engine.New(nil, nil, nil)
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	s := &Server{
		engine:    eng,
		addr:      cfg.Addr,
		maxBody:   maxBody,
		logger:    log.GetLogger("server"),
		sessions:  make(map[int64]*session),
		startTime: time.Now(),
	}
	s.wsUpgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // local tool, any origin
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", s.instrument("/api/analyze", s.handleAnalyze))
	mux.HandleFunc("/api/mutate", s.instrument("/api/mutate", s.handleMutate))
	mux.HandleFunc("/api/report", s.instrument("/api/report", s.handleReport))
	mux.HandleFunc("/api/printers", s.instrument("/api/printers", s.handlePrinters))
	mux.HandleFunc("/api/templates", s.instrument("/api/templates", s.handleTemplates))
	mux.HandleFunc("/api/templates/", s.instrument("/api/templates/{id}", s.handleTemplate))
	mux.HandleFunc("/jsonrpc", s.handleJSONRPC)
	mux.HandleFunc("/websocket", s.handleWebSocket)
	mux.Handle("/metrics", metrics.NewHandler(eng.Metrics(), cfg.MetricsAuth))
	mux.HandleFunc("/health", metrics.HealthHandler)
	s.mux = mux
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the full handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.running.Store(true)
	s.logger.Info("listening on %s", s.addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, errors.ErrServiceRequest, "server failed")
	}
	return nil
}

// Stop closes websocket clients and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.running.Store(false)

	s.sessionsMu.Lock()
	for id, c := range s.sessions {
		c.close()
		delete(s.sessions, id)
		s.engine.Metrics().WebsocketConns.Dec(nil)
	}
	s.sessionsMu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

// statusRecorder captures the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latency under name.
func (s *Server) instrument(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r.Body = http.MaxBytesReader(rec, r.Body, s.maxBody)
		h(rec, r)
		s.engine.Metrics().ObserveRequest(name, rec.status, time.Since(start))
	}
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// JSON response helpers

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Warn("unable to write response")
	}
}

func (s *Server) writeResult(w http.ResponseWriter, result any) {
	s.writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
	}
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    string(errors.CodeOf(err)),
			"message": err.Error(),
		},
	})
}

// httpStatus maps an error code to a response status.
func httpStatus(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrDirectiveInvalid, errors.ErrDirectiveDecode, errors.ErrServiceRequest, errors.ErrTemplateInvalid:
		return http.StatusBadRequest
	case errors.ErrTemplateNotFound:
		return http.StatusNotFound
	case errors.ErrTemplateBuiltIn:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
