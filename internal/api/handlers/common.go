// Package handlers implements the HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/db/models"
	"github.com/pysugar/meeting-nexus/internal/logging"
)

// maxBodyBytes caps JSON request bodies. Transcripts can be long.
const maxBodyBytes = 8 << 20

// TokenClients hands out HTTP clients authorised as a user.
type TokenClients interface {
	Client(ctx context.Context, user *models.User) *http.Client
}

// decodeJSON reads the request body into v. A malformed body is a 400.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, "Invalid JSON body", err)
	}
	return nil
}

// fail logs err on the request logger and writes the JSON error body.
func fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := apperr.Write(w, err, fallback)
	ev := logging.FromContext(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		ev = logging.FromContext(r.Context()).Error()
	}
	ev.Err(err).Int("status", status).Msg(fallback)
}
