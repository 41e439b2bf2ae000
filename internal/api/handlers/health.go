package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/version"
)

// HealthHandler handles GET /healthz. ping checks the database.
func HealthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			fail(w, r, apperr.Wrap(apperr.KindInternal, "database unavailable", err), "database unavailable")
			return
		}
		apperr.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version.Version,
		})
	}
}
