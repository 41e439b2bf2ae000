package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/upstream/gemini"
)

// Summarizer produces a summary of a meeting transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// SummarizeHandler handles POST /api/summarize.
func SummarizeHandler(s Summarizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Transcript string `json:"transcript"`
		}
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, err, "Invalid JSON body")
			return
		}
		if strings.TrimSpace(body.Transcript) == "" {
			fail(w, r, apperr.New(apperr.KindBadRequest, "Transcript is required"), "Transcript is required")
			return
		}

		summary, err := s.Summarize(r.Context(), body.Transcript)
		if errors.Is(err, gemini.ErrNotConfigured) {
			fail(w, r, apperr.Wrap(apperr.KindInternal, "Summarization is not configured", err), "Error generating summary")
			return
		}
		if err != nil {
			fail(w, r, apperr.Upstream("Error generating summary", err), "Error generating summary")
			return
		}
		apperr.WriteJSON(w, http.StatusOK, map[string]string{"summary": summary})
	}
}
