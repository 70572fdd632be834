// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package statusapi exposes controller state over HTTP for headless runs.
//
//	GET  /health       liveness plus dependency checks
//	GET  /api/state    the projected view model
//	POST /api/refresh  fetch the snapshot now
package statusapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/bcem/marketmail/internal/controller"
	"github.com/bcem/marketmail/internal/view"
)

// Controller is the part of the controller the API reads and drives.
type Controller interface {
	State() controller.State
	Refresh(ctx context.Context) error
}

// Check is a named dependency probe, e.g. a Redis or Postgres ping.
type Check func(ctx context.Context) error

// Handler serves the status endpoints.
type Handler struct {
	ctrl          Controller
	checks        map[string]Check
	previewLength int
	started       time.Time
	now           func() time.Time
}

// NewHandler creates a status handler. checks may be nil.
func NewHandler(ctrl Controller, checks map[string]Check, previewLength int) *Handler {
	return &Handler{
		ctrl:          ctrl,
		checks:        checks,
		previewLength: previewLength,
		started:       time.Now(),
		now:           time.Now,
	}
}

type healthResponse struct {
	Status     string            `json:"status"`
	HasData    bool              `json:"has_data"`
	Connection string            `json:"connection"`
	Uptime     string            `json:"uptime"`
	Checks     map[string]string `json:"checks,omitempty"`
}

// ServeHealth reports liveness. Any failing dependency check turns the
// answer into 503.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	st := h.ctrl.State()
	resp := healthResponse{
		Status:     "healthy",
		HasData:    st.Snapshot.Present(),
		Connection: string(st.Connection),
		Uptime:     h.now().Sub(h.started).Truncate(time.Second).String(),
	}

	code := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(r.Context()); err != nil {
				slog.Warn("health check failed", "check", name, "error", err)
				resp.Checks[name] = err.Error()
				resp.Status = "unhealthy"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	writeJSON(w, code, resp)
}

// ServeState returns the view model. ?expanded=true shows full content.
func (h *Handler) ServeState(w http.ResponseWriter, r *http.Request) {
	m := view.Project(h.ctrl.State(), view.Options{
		Expanded:      r.URL.Query().Get("expanded") == "true",
		Now:           h.now(),
		PreviewLength: h.previewLength,
	})
	writeJSON(w, http.StatusOK, m)
}

// ServeRefresh triggers an immediate snapshot fetch.
func (h *Handler) ServeRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Refresh(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(h.ctrl.State().Connection)})
}

// Routes returns the mux with every endpoint registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.ServeHealth)
	mux.HandleFunc("GET /api/state", h.ServeState)
	mux.HandleFunc("POST /api/refresh", h.ServeRefresh)
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Serve starts the status server on port. It binds the port immediately and
// signals readiness via the returned channel; the server closes when ctx is
// cancelled.
func Serve(ctx context.Context, port int, handler *Handler) (<-chan struct{}, error) {
	server := &http.Server{
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind status port %d: %w", port, err)
	}

	ready := make(chan struct{})

	go func() {
		<-ctx.Done()
		slog.Info("status server shutting down")
		server.Close()
	}()

	go func() {
		slog.Info("status server listening", "addr", ln.Addr().String())
		close(ready)
		if err := server.Serve(ln); err != http.ErrServerClosed {
			slog.Error("status server error", "error", err)
		}
	}()

	return ready, nil
}
