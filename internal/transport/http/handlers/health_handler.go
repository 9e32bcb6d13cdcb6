package handlers

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/ivankudzin/tgapp/matchengine/internal/transport/http/errors"
)

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Get always answers 200 so a degraded instance stays in rotation for /healthz probes; the per-store
// status lets operators see what is down.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	status := make(map[string]string, len(h.checks))
	for name, ping := range h.checks {
		if ping == nil {
			status[name] = "disabled"
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		if err := ping(ctx); err != nil {
			status[name] = "down"
		} else {
			status[name] = "up"
		}
		cancel()
	}

	httperrors.Write(w, http.StatusOK, struct {
		OK     bool              `json:"ok"`
		Checks map[string]string `json:"checks"`
	}{
		OK:     true,
		Checks: status,
	})
}
