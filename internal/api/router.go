// Package api assembles the HTTP router.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pysugar/meeting-nexus/internal/api/handlers"
	"github.com/pysugar/meeting-nexus/internal/api/middleware"
	"github.com/pysugar/meeting-nexus/internal/auth/google"
	"github.com/pysugar/meeting-nexus/internal/logging"
	"github.com/pysugar/meeting-nexus/internal/session"
	"github.com/pysugar/meeting-nexus/internal/upstream/workspace"
)

// Deps are the services the routes run on.
type Deps struct {
	Log       logging.Logger
	Auth      *google.Handlers
	Resolver  *session.Resolver
	Cookies   session.Cookies
	Tokens    handlers.TokenClients
	Workspace *workspace.Client
	Notes     handlers.NoteStore
	Meetings  handlers.MeetingStore
	Summary   handlers.Summarizer
	Notion    handlers.NotionExporter
	Ping      func(ctx context.Context) error
}

// NewRouter builds the router for every route of the service.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestContext(d.Log))
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handlers.HealthHandler(d.Ping))

	r.Route("/api", func(r chi.Router) {
		// OAuth flow
		r.Get("/auth/google", d.Auth.HandleLogin)
		r.Get("/auth/google/callback", d.Auth.HandleCallback)

		r.Get("/integrations", handlers.IntegrationsHandler(d.Resolver))
		r.With(session.RequireIdentity).Put("/integrations/{id}", handlers.UpdateIntegrationHandler(d.Cookies))

		// Google data, needs a connected account
		r.Group(func(r chi.Router) {
			r.Use(d.Resolver.RequireConnected)
			r.Get("/gmail/reports", handlers.GmailReportsHandler(d.Tokens, d.Workspace))
			r.Get("/google/calendar/events", handlers.CalendarEventsHandler(d.Tokens, d.Workspace))
			r.Get("/google/meet", handlers.MeetEventsHandler(d.Tokens, d.Workspace))
			r.Get("/google/docs/{docId}", handlers.DocumentHandler(d.Tokens, d.Workspace))
		})

		r.Route("/notes", func(r chi.Router) {
			r.Use(session.RequireIdentity)
			r.Get("/", handlers.ListNotesHandler(d.Notes))
			r.Post("/", handlers.CreateNoteHandler(d.Notes))
		})

		r.Route("/meetings", func(r chi.Router) {
			r.With(session.RequireIdentity).Get("/", handlers.ListMeetingsHandler(d.Meetings))
			r.Post("/", handlers.IngestMeetingHandler(d.Meetings))
			r.Post("/save-to-notion", handlers.SaveToNotionHandler(d.Notion))
			r.With(session.RequireIdentity).Delete("/{meetingId}", handlers.DeleteMeetingHandler(d.Meetings))
		})

		r.Post("/summarize", handlers.SummarizeHandler(d.Summary))
	})

	return r
}
