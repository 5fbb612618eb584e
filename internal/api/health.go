package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/hackgods/sus-scheduling/internal/store"
)

// HealthHandler reports liveness and pings every configured backend for
// readiness.
type HealthHandler struct {
	checks  map[string]store.Pinger
	env     string
	version string
}

func NewHealthHandler(checks map[string]store.Pinger, env, version string) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		env:     env,
		version: version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]string, len(names))
	status := "ok"
	for _, name := range names {
		pingCtx, pingCancel := context.WithTimeout(ctx, time.Second)
		err := h.checks[name].Ping(pingCtx)
		pingCancel()
		if err != nil {
			deps[name] = "down"
			status = "error"
			continue
		}
		deps[name] = "ok"
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	})
}
