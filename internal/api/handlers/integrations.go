package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/integration"
	"github.com/pysugar/meeting-nexus/internal/logging"
	"github.com/pysugar/meeting-nexus/internal/session"
)

// IntegrationsHandler handles GET /api/integrations. A request without a
// session sees every integration disconnected.
func IntegrationsHandler(res *session.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connected, err := res.Connected(r)
		if err != nil {
			fail(w, r, apperr.Wrap(apperr.KindInternal, "Failed to load integrations", err), "Failed to load integrations")
			return
		}
		apperr.WriteJSON(w, http.StatusOK, integration.Statuses(connected))
	}
}

// UpdateIntegrationHandler handles PUT /api/integrations/{id}.
func UpdateIntegrationHandler(cookies session.Cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			fail(w, r, apperr.New(apperr.KindBadRequest, "Invalid integration id"), "Invalid integration id")
			return
		}
		var body struct {
			Connected bool `json:"connected"`
		}
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, err, "Invalid JSON body")
			return
		}

		out := integration.Apply(w, cookies, integration.Update{ID: id, Connected: body.Connected})
		if id == integration.GoogleID && !body.Connected {
			logging.FromContext(r.Context()).Info().Str("user", session.IdentityFrom(r.Context())).Msg("google disconnected")
		}
		apperr.WriteJSON(w, http.StatusOK, out)
	}
}
