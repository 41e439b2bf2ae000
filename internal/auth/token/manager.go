// Package token builds authenticated Google clients from stored credentials
// and persists tokens the client rotates while serving a request.
package token

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/auth/google"
	"github.com/pysugar/meeting-nexus/internal/db"
	"github.com/pysugar/meeting-nexus/internal/db/models"
	"github.com/pysugar/meeting-nexus/internal/logging"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// persistTimeout bounds a background credential write.
const persistTimeout = 10 * time.Second

// x/oauth2 reports an expired token without a refresh token as a plain error.
const missingRefreshToken = "refresh token is not set"

// RefreshStore records rotated tokens.
type RefreshStore interface {
	ApplyRefresh(ctx context.Context, googleID string, g db.Grant) error
}

// Manager hands out per-user Google clients and saves rotated tokens.
type Manager struct {
	provider *google.Provider
	store    RefreshStore
	log      logging.Logger

	// refreshes collapses concurrent token fetches for one user.
	refreshes singleflight.Group
	wg        sync.WaitGroup
}

// NewManager creates a token manager.
func NewManager(provider *google.Provider, store RefreshStore, log logging.Logger) *Manager {
	return &Manager{
		provider: provider,
		store:    store,
		log:      log.With().Str("component", "token").Logger(),
	}
}

// TokenSource returns a token source seeded from user's stored credentials.
// Whenever it hands out an access token different from the previous one,
// the rotation is queued for persistence before the token is returned.
// Sources of the same user share in-flight refreshes.
func (m *Manager) TokenSource(ctx context.Context, user *models.User) oauth2.TokenSource {
	seed := &oauth2.Token{
		AccessToken:  user.AccessToken,
		RefreshToken: user.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       user.TokenExpiry,
	}
	cfg := m.provider.OAuthConfig("")
	octx := m.provider.Context(ctx)
	rebase := func(tok *oauth2.Token) oauth2.TokenSource {
		return cfg.TokenSource(octx, tok)
	}
	return &notifyingSource{
		key:     user.GoogleID,
		group:   &m.refreshes,
		base:    rebase(seed),
		rebase:  rebase,
		current: seed.AccessToken,
		onRotate: func(tok *oauth2.Token) {
			m.TokensRotated(user.GoogleID, tok)
		},
	}
}

// Client returns an HTTP client authorised as user. Calls through it are
// bounded by the provider timeout.
func (m *Manager) Client(ctx context.Context, user *models.User) *http.Client {
	client := oauth2.NewClient(m.provider.Context(ctx), m.TokenSource(ctx, user))
	client.Timeout = m.provider.Timeout()
	return client
}

// TokensRotated schedules persistence of tok for googleID. It returns once
// the write is queued; Shutdown waits for queued writes.
func (m *Manager) TokensRotated(googleID string, tok *oauth2.Token) {
	grant := db.Grant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		err := m.store.ApplyRefresh(ctx, googleID, grant)
		if err != nil {
			// the rotated token only lives in memory now; the next refresh
			// will use the stored refresh token, which may have been revoked.
			m.log.Error().Err(err).Str("user", googleID).
				Bool("has_refresh_token", grant.RefreshToken != "").
				Msg("failed to persist rotated google tokens")
		} else {
			m.log.Info().Str("user", googleID).
				Time("expires", grant.Expiry).
				Msg("google tokens refreshed and saved")
		}
	}()
}

// Shutdown waits until queued token writes finish or ctx ends.
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClassifyError maps a failed Google call to an application error. A
// refresh token Google no longer accepts, or none at all behind an expired
// access token, means the user must log in again.
func ClassifyError(message string, err error) *apperr.Error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && google.IsPermanentGrantError(err) {
		return apperr.Wrap(apperr.KindIntegrationNotConnected,
			"Google authorization expired, please reconnect your Google account", err)
	}
	if err != nil && strings.Contains(err.Error(), missingRefreshToken) {
		return apperr.Wrap(apperr.KindIntegrationNotConnected,
			"Google authorization expired, please reconnect your Google account", err)
	}
	return apperr.Upstream(message, err)
}

type notifyingSource struct {
	mu       sync.Mutex
	key      string
	group    *singleflight.Group
	base     oauth2.TokenSource
	rebase   func(*oauth2.Token) oauth2.TokenSource
	current  string
	onRotate func(*oauth2.Token)
}

func (s *notifyingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leader := false
	v, err, _ := s.group.Do(s.key, func() (any, error) {
		leader = true
		return s.base.Token()
	})
	if err != nil {
		return nil, err
	}
	tok := v.(*oauth2.Token)

	// a token fetched by another source replaces ours; only the fetching
	// source reports the rotation.
	if !leader {
		s.base = s.rebase(tok)
	}
	if tok.AccessToken != s.current {
		s.current = tok.AccessToken
		if leader {
			s.onRotate(tok)
		}
	}
	return tok, nil
}
