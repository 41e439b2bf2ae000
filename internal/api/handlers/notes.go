package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/db/models"
	"github.com/pysugar/meeting-nexus/internal/session"
)

// NoteStore reads and writes notes.
type NoteStore interface {
	Create(ctx context.Context, n *models.Note) error
	ListForUser(ctx context.Context, googleID string) ([]models.Note, error)
}

// ListNotesHandler handles GET /api/notes.
func ListNotesHandler(store NoteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notes, err := store.ListForUser(r.Context(), session.IdentityFrom(r.Context()))
		if err != nil {
			fail(w, r, err, "Failed to load notes")
			return
		}
		apperr.WriteJSON(w, http.StatusOK, notes)
	}
}

// CreateNoteHandler handles POST /api/notes.
func CreateNoteHandler(store NoteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title   string `json:"title"`
			Summary string `json:"summary"`
		}
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, err, "Invalid JSON body")
			return
		}
		if strings.TrimSpace(body.Title) == "" {
			fail(w, r, apperr.New(apperr.KindBadRequest, "Title is required"), "Title is required")
			return
		}

		note := &models.Note{
			UserGoogleID: session.IdentityFrom(r.Context()),
			Title:        strings.TrimSpace(body.Title),
			Summary:      body.Summary,
		}
		if err := store.Create(r.Context(), note); err != nil {
			fail(w, r, err, "Failed to save note")
			return
		}
		apperr.WriteJSON(w, http.StatusCreated, note)
	}
}
