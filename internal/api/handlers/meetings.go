package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/db"
	"github.com/pysugar/meeting-nexus/internal/db/models"
	"github.com/pysugar/meeting-nexus/internal/logging"
	"github.com/pysugar/meeting-nexus/internal/session"
)

const defaultMeetingSoftware = "Google Meet"

// MeetingStore reads and writes captured meetings.
type MeetingStore interface {
	Upsert(ctx context.Context, m *models.Meeting) error
	ListForUser(ctx context.Context, googleID string) ([]models.Meeting, error)
	DeleteForUser(ctx context.Context, googleID, externalID string) error
}

// ListMeetingsHandler handles GET /api/meetings.
func ListMeetingsHandler(store MeetingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meetings, err := store.ListForUser(r.Context(), session.IdentityFrom(r.Context()))
		if err != nil {
			fail(w, r, err, "Failed to load meetings")
			return
		}
		apperr.WriteJSON(w, http.StatusOK, meetings)
	}
}

// IngestMeetingHandler handles POST /api/meetings, the browser extension
// webhook. The payload owner falls back to the caller's session.
func IngestMeetingHandler(store MeetingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := decodeJSON(r, &payload); err != nil {
			fail(w, r, err, "Failed to save meeting")
			return
		}
		if payload == nil {
			fail(w, r, apperr.New(apperr.KindBadRequest, "Meeting payload must be a JSON object"), "Failed to save meeting")
			return
		}

		owner, _ := session.Identity(r)
		m := NormalizeMeeting(payload, owner, time.Now().UTC())
		err := store.Upsert(r.Context(), m)
		if errors.Is(err, db.ErrMeetingOwned) {
			fail(w, r, apperr.Wrap(apperr.KindConflict, "Meeting belongs to another user", err), "Failed to save meeting")
			return
		}
		if err != nil {
			fail(w, r, err, "Failed to save meeting")
			return
		}
		logging.FromContext(r.Context()).Info().
			Str("meeting", m.ExternalID).Str("user", m.UserGoogleID).
			Int("transcript_bytes", len(m.Transcript)).
			Msg("meeting captured")
		apperr.WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": m.ExternalID})
	}
}

// DeleteMeetingHandler handles DELETE /api/meetings/{meetingId}.
func DeleteMeetingHandler(store MeetingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "meetingId"))
		if id == "" {
			fail(w, r, apperr.New(apperr.KindBadRequest, "Meeting ID is required"), "Meeting ID is required")
			return
		}
		err := store.DeleteForUser(r.Context(), session.IdentityFrom(r.Context()), id)
		if errors.Is(err, db.ErrNotFound) {
			fail(w, r, apperr.New(apperr.KindNotFound, "Meeting not found"), "Meeting not found")
			return
		}
		if err != nil {
			fail(w, r, err, "Failed to delete meeting")
			return
		}
		apperr.WriteJSON(w, http.StatusOK, map[string]string{"message": "Meeting deleted successfully"})
	}
}

// NormalizeMeeting maps the loosely shaped extension payload onto a
// meeting. Each field takes the first non-empty of its known aliases.
func NormalizeMeeting(p map[string]any, owner string, now time.Time) *models.Meeting {
	raw, _ := json.Marshal(p)

	m := &models.Meeting{
		ExternalID:       first(p, "id"),
		UserGoogleID:     first(p, "userId"),
		Title:            first(p, "meetingTitle", "title", "meeting_code"),
		MeetingTimestamp: now,
		Transcript:       first(p, "transcript", "full_transcript", "text", "content"),
		ChatMessages:     first(p, "chatMessages"),
		Summary:          first(p, "summary"),
		Source:           models.SourceExtension,
		MeetingSoftware:  first(p, "meetingSoftware"),
		RawPayload:       string(raw),
	}
	if m.ExternalID == "" {
		m.ExternalID = uuid.NewString()
	}
	if m.UserGoogleID == "" {
		m.UserGoogleID = owner
	}
	if m.Title == "" {
		m.Title = "Meeting"
	}
	if m.MeetingSoftware == "" {
		m.MeetingSoftware = defaultMeetingSoftware
	}
	for _, key := range []string{"meetingEndTimestamp", "ended_at", "timestamp"} {
		if ts, ok := parseTimestamp(p[key]); ok {
			m.MeetingTimestamp = ts
			break
		}
	}
	return m
}

// first returns the first alias holding a non-empty value, rendered as a
// string. Non-string values such as chat message arrays are kept as JSON.
func first(p map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := p[k].(type) {
		case nil:
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			if v {
				return "true"
			}
		default:
			if b, err := json.Marshal(v); err == nil && string(b) != "[]" && string(b) != "{}" {
				return string(b)
			}
		}
	}
	return ""
}

// parseTimestamp accepts RFC 3339 strings and Unix epoch milliseconds.
func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UTC(), true
			}
		}
		if ms, err := strconv.ParseInt(t, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC(), true
		}
	case float64:
		if t > 0 {
			return time.UnixMilli(int64(t)).UTC(), true
		}
	}
	return time.Time{}, false
}
