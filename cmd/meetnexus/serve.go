package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pysugar/meeting-nexus/internal/api"
	"github.com/pysugar/meeting-nexus/internal/auth/google"
	"github.com/pysugar/meeting-nexus/internal/auth/token"
	"github.com/pysugar/meeting-nexus/internal/config"
	"github.com/pysugar/meeting-nexus/internal/db"
	"github.com/pysugar/meeting-nexus/internal/logging"
	"github.com/pysugar/meeting-nexus/internal/session"
	"github.com/pysugar/meeting-nexus/internal/upstream/gemini"
	"github.com/pysugar/meeting-nexus/internal/upstream/notion"
	"github.com/pysugar/meeting-nexus/internal/upstream/workspace"
	"github.com/pysugar/meeting-nexus/internal/version"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.AppEnv, cfg.LogLevel)
	if !cfg.HasGoogleCredentials() {
		log.Warn().Msg("GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set, Google login will fail")
	}

	database, err := db.Open(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	creds := db.NewCredentialStore(database)
	provider := google.NewProvider(cfg)
	cookies := session.Cookies{Secure: cfg.IsProduction()}
	tokens := token.NewManager(provider, creds, log)

	router := api.NewRouter(api.Deps{
		Log:       log,
		Auth:      google.NewHandlers(provider, creds, cookies, cfg.BaseURL()),
		Resolver:  session.NewResolver(creds),
		Cookies:   cookies,
		Tokens:    tokens,
		Workspace: workspace.New(provider.APIEndpoint()),
		Notes:     db.NewNoteStore(database),
		Meetings:  db.NewMeetingStore(database),
		Summary:   gemini.NewSummarizer(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.UpstreamTimeout),
		Notion:    notion.NewExporter(cfg.NotionAPIKey, cfg.NotionDatabaseID, &http.Client{Timeout: cfg.UpstreamTimeout}),
		Ping:      func(ctx context.Context) error { return db.Ping(ctx, database) },
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.AppEnv).
			Str("db", cfg.DBDriver).
			Str("version", version.Version).
			Msg("meetnexus listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := tokens.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("pending token writes were not flushed")
	}
	return nil
}
