package google

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/db"
	"github.com/pysugar/meeting-nexus/internal/db/models"
	"github.com/pysugar/meeting-nexus/internal/logging"
	"github.com/pysugar/meeting-nexus/internal/session"
	"golang.org/x/oauth2"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// LandingPath is where the browser goes after a successful login.
const LandingPath = "/integrations"

// CredentialWriter stores the result of a login.
type CredentialWriter interface {
	UpsertLogin(ctx context.Context, p db.Profile, g db.Grant) (*models.User, error)
}

// Handlers serves the login and callback routes.
type Handlers struct {
	provider *Provider
	store    CredentialWriter
	cookies  session.Cookies
	baseURL  string
}

// NewHandlers wires the OAuth routes. baseURL may be empty to derive it from
// each request.
func NewHandlers(p *Provider, store CredentialWriter, cookies session.Cookies, baseURL string) *Handlers {
	return &Handlers{provider: p, store: store, cookies: cookies, baseURL: baseURL}
}

// Exchange trades an authorization code for tokens. A transient failure is
// retried once; rejected codes are not.
func (p *Provider) Exchange(ctx context.Context, code, redirectURL string) (*oauth2.Token, error) {
	cfg := p.OAuthConfig(redirectURL)
	ctx = p.Context(ctx)

	var tok *oauth2.Token
	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		t, err := cfg.Exchange(attemptCtx, code)
		if err != nil {
			if IsPermanentGrantError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		tok = t
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 1), ctx)); err != nil {
		return nil, err
	}
	return tok, nil
}

// FetchProfile reads the authenticated user's profile. All of id, email,
// name and picture must be present.
func (p *Provider) FetchProfile(ctx context.Context, tok *oauth2.Token) (db.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client := p.OAuthConfig("").Client(p.Context(ctx), tok)
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(p.apiEndpoint))
	}
	svc, err := goauth2.NewService(ctx, opts...)
	if err != nil {
		return db.Profile{}, err
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return db.Profile{}, apperr.Upstream("Failed to fetch Google profile", err)
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"id", info.Id}, {"email", info.Email}, {"name", info.Name}, {"picture", info.Picture},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return db.Profile{}, apperr.IncompleteProfile(missing)
	}

	return db.Profile{GoogleID: info.Id, Email: info.Email, Name: info.Name, Picture: info.Picture}, nil
}

// CompleteAuthorization exchanges code, fetches the profile and upserts the
// credential record. Nothing is written when code is empty.
func (h *Handlers) CompleteAuthorization(ctx context.Context, code, baseURL string) (*models.User, error) {
	if code == "" {
		return nil, apperr.ErrMissingAuthorizationCode
	}

	tok, err := h.provider.Exchange(ctx, code, RedirectURL(baseURL))
	if err != nil {
		return nil, apperr.Upstream("Authentication failed", err)
	}
	profile, err := h.provider.FetchProfile(ctx, tok)
	if err != nil {
		return nil, err
	}

	user, err := h.store.UpsertLogin(ctx, profile, db.Grant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Authentication failed", err)
	}
	return user, nil
}

// HandleCallback completes the login started by HandleLogin.
func (h *Handlers) HandleCallback(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	q := r.URL.Query()

	code := q.Get("code")
	if code == "" {
		apperr.Write(w, apperr.ErrMissingAuthorizationCode, "")
		return
	}
	if err := h.checkState(w, r, q.Get("state")); err != nil {
		log.Warn().Err(err).Msg("oauth callback rejected")
		apperr.Write(w, err, "")
		return
	}

	baseURL := ResolveBaseURL(h.baseURL, r)
	user, err := h.CompleteAuthorization(r.Context(), code, baseURL)
	if err != nil {
		log.Error().Err(err).Msg("google oauth callback failed")
		var ae *apperr.Error
		if !errors.As(err, &ae) || ae.Kind != apperr.KindIncompleteProviderProfile {
			err = apperr.Wrap(apperr.KindUpstreamFailure, "Authentication failed", err)
		}
		apperr.Write(w, err, "Authentication failed")
		return
	}

	h.cookies.Set(w, user)
	log.Info().Str("user", user.GoogleID).Str("email", user.Email).Msg("google account connected")
	http.Redirect(w, r, RedirectTarget(baseURL), http.StatusFound)
}

// RedirectTarget is the post-login landing URL for baseURL.
func RedirectTarget(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + LandingPath
}

// checkState validates the state parameter when the login set a state
// cookie. Callbacks without the cookie are accepted.
func (h *Handlers) checkState(w http.ResponseWriter, r *http.Request, state string) error {
	c, err := r.Cookie(StateCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: StateCookie, Path: "/api/auth/google", MaxAge: -1, HttpOnly: true})
	if c.Value != state {
		return apperr.New(apperr.KindBadRequest, "Invalid state token")
	}
	return nil
}
