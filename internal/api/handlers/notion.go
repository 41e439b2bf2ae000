package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/upstream/notion"
)

// NotionExporter writes a meeting summary page and returns its URL.
type NotionExporter interface {
	Export(ctx context.Context, m notion.MeetingSummary) (string, error)
}

// SaveToNotionHandler handles POST /api/meetings/save-to-notion.
func SaveToNotionHandler(exp NotionExporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title        string   `json:"title"`
			Date         string   `json:"date"`
			Participants *float64 `json:"participants"`
			Transcript   string   `json:"transcript"`
			Summary      string   `json:"summary"`
		}
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, err, "Invalid JSON body")
			return
		}
		if strings.TrimSpace(body.Transcript) == "" || strings.TrimSpace(body.Summary) == "" {
			fail(w, r, apperr.New(apperr.KindBadRequest, "Transcript and summary are required"), "Transcript and summary are required")
			return
		}

		date := time.Now().UTC()
		if strings.TrimSpace(body.Date) != "" {
			ts, ok := parseTimestamp(body.Date)
			if !ok {
				fail(w, r, apperr.New(apperr.KindBadRequest, "Invalid date"), "Invalid date")
				return
			}
			date = ts
		}

		pageURL, err := exp.Export(r.Context(), notion.MeetingSummary{
			Title:        body.Title,
			Date:         date,
			Participants: body.Participants,
			Transcript:   body.Transcript,
			Summary:      body.Summary,
		})
		if errors.Is(err, notion.ErrNotConfigured) {
			fail(w, r, apperr.Wrap(apperr.KindInternal, "Notion is not configured", err), "Error creating Notion page")
			return
		}
		if err != nil {
			fail(w, r, apperr.Upstream("Error creating Notion page", err), "Error creating Notion page")
			return
		}
		apperr.WriteJSON(w, http.StatusOK, map[string]string{"notionUrl": pageURL})
	}
}
