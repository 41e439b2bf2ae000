package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/session"
	"github.com/pysugar/meeting-nexus/internal/upstream/workspace"
)

// GmailReportsHandler handles GET /api/gmail/reports.
func GmailReportsHandler(tokens TokenClients, ws *workspace.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := session.UserFrom(r.Context())
		reports, err := ws.GmailReports(r.Context(), tokens.Client(r.Context(), user))
		if err != nil {
			fail(w, r, workspace.ClassifyError("Error fetching Gmail reports", err), "Error fetching Gmail reports")
			return
		}
		apperr.WriteJSON(w, http.StatusOK, reports)
	}
}

// CalendarEventsHandler handles GET /api/google/calendar/events.
func CalendarEventsHandler(tokens TokenClients, ws *workspace.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := session.UserFrom(r.Context())
		events, err := ws.UpcomingEvents(r.Context(), tokens.Client(r.Context(), user), time.Now())
		if err != nil {
			fail(w, r, workspace.ClassifyError("Error fetching calendar events", err), "Error fetching calendar events")
			return
		}
		apperr.WriteJSON(w, http.StatusOK, events)
	}
}

// MeetEventsHandler handles GET /api/google/meet.
func MeetEventsHandler(tokens TokenClients, ws *workspace.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := session.UserFrom(r.Context())
		events, err := ws.MeetEvents(r.Context(), tokens.Client(r.Context(), user), time.Now())
		if err != nil {
			fail(w, r, workspace.ClassifyError("Error fetching Meet events", err), "Error fetching Meet events")
			return
		}
		apperr.WriteJSON(w, http.StatusOK, events)
	}
}

// DocumentHandler handles GET /api/google/docs/{docId}.
func DocumentHandler(tokens TokenClients, ws *workspace.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := strings.TrimSpace(chi.URLParam(r, "docId"))
		if docID == "" {
			fail(w, r, apperr.New(apperr.KindBadRequest, "Document ID is required"), "Document ID is required")
			return
		}
		user := session.UserFrom(r.Context())
		doc, err := ws.Document(r.Context(), tokens.Client(r.Context(), user), docID)
		if err != nil {
			fail(w, r, workspace.ClassifyError("Error fetching document", err), "Error fetching document")
			return
		}
		apperr.WriteJSON(w, http.StatusOK, doc)
	}
}
