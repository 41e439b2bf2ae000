package google

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pysugar/meeting-nexus/internal/config"
	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"
)

// CallbackPath is appended to the base URL to form the redirect URI. The
// value registered with Google must match it exactly.
const CallbackPath = "/api/auth/google/callback"

// Scopes requested at login. Offline access to all of them is what the
// Gmail, Calendar and Docs routes run on.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/documents.readonly",
	"https://www.googleapis.com/auth/drive.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// Provider holds the OAuth client settings for Google.
type Provider struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint
	// apiEndpoint overrides the Google API base URL (tests).
	apiEndpoint string
	timeout     time.Duration
	httpClient  *http.Client
}

// Option customises a Provider.
type Option func(*Provider)

// WithEndpoint replaces Google's authorization and token endpoints.
func WithEndpoint(ep oauth2.Endpoint) Option {
	return func(p *Provider) { p.endpoint = ep }
}

// WithAPIEndpoint replaces the base URL of the Google REST APIs.
func WithAPIEndpoint(u string) Option {
	return func(p *Provider) { p.apiEndpoint = u }
}

// NewProvider builds a Provider from cfg.
func NewProvider(cfg *config.Config, opts ...Option) *Provider {
	p := &Provider{
		clientID:     strings.TrimSpace(cfg.GoogleClientID),
		clientSecret: strings.TrimSpace(cfg.GoogleClientSecret),
		endpoint:     googleOAuth.Endpoint,
		timeout:      cfg.UpstreamTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.timeout <= 0 {
		p.timeout = 20 * time.Second
	}
	p.httpClient = &http.Client{Timeout: p.timeout}
	return p
}

// OAuthConfig returns the OAuth2 config for the given redirect URL. An empty
// redirect URL is fine for refresh-only use.
func (p *Provider) OAuthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     p.endpoint,
	}
}

// Context attaches the provider's bounded HTTP client for token endpoint
// calls made by golang.org/x/oauth2.
func (p *Provider) Context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// Timeout bounds every call to Google.
func (p *Provider) Timeout() time.Duration { return p.timeout }

// APIEndpoint is the Google API base override, "" for the default.
func (p *Provider) APIEndpoint() string { return p.apiEndpoint }
