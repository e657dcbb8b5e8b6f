// HTTP handlers for the metrics and health endpoints
//
// The service mounts these next to its API routes:
//
//	mux.Handle("/metrics", metrics.NewHandler(em, metrics.HandlerConfig{}))
//	mux.HandleFunc("/health", metrics.HealthHandler)
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"crypto/subtle"
	"net/http"
	"strconv"
)

// HandlerConfig holds optional basic auth credentials for /metrics.
type HandlerConfig struct {
	Username string
	Password string
}

// Handler serves Prometheus metrics over HTTP
type Handler struct {
	em       *EngineMetrics
	username string
	password string
}

// NewHandler creates a metrics handler for em.
func NewHandler(em *EngineMetrics, cfg HandlerConfig) *Handler {
	return &Handler{em: em, username: cfg.Username, password: cfg.Password}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkAuth(w, r) {
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	output := h.em.Gather()
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Length", strconv.Itoa(len(output)))
		return
	}
	_, _ = w.Write([]byte(output))
}

// checkAuth verifies basic auth if configured
func (h *Handler) checkAuth(w http.ResponseWriter, r *http.Request) bool {
	if h.username == "" && h.password == "" {
		return true
	}

	username, password, ok := r.BasicAuth()
	if ok {
		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.password)) == 1
		if userOK && passOK {
			return true
		}
	}
	w.Header().Set("WWW-Authenticate", `Basic realm="Toolpath Metrics"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
	return false
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}
