package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// DependencyCheck pings an optional collaborator such as the event store.
type DependencyCheck func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]DependencyCheck
	env     string
	version string
}

func NewHealthHandler(checks map[string]DependencyCheck, env, version string) *HealthHandler {
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

// Readiness pings every configured dependency. They only receive events, so
// the scheduler keeps serving when one is down and the status is "degraded".
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
		checkCtx, checkCancel := context.WithTimeout(ctx, time.Second)
		err := h.checks[name](checkCtx)
		checkCancel()
		if err != nil {
			deps[name] = "down"
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}

	writeJSON(w, http.StatusOK, ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	})
}
