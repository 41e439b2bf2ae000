package google

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// StateCookie carries the CSRF state between login and callback.
const StateCookie = "oauth_state"

// ResolveBaseURL picks the public base URL: the configured one when set,
// otherwise the scheme and host of the inbound request.
func ResolveBaseURL(configured string, r *http.Request) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// RedirectURL builds the callback URI. Trailing slashes on baseURL are
// dropped so "https://x/" and "https://x" give the same URI.
func RedirectURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + CallbackPath
}

// BeginAuthorization returns the Google consent URL for baseURL. Offline
// access and a forced consent prompt make Google issue a refresh token even
// to returning users.
func (p *Provider) BeginAuthorization(baseURL, state string) string {
	cfg := p.OAuthConfig(RedirectURL(baseURL))
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func newState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// HandleLogin redirects the browser to Google's consent page.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := newState()
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.provider.BeginAuthorization(ResolveBaseURL(h.baseURL, r), state)
	http.Redirect(w, r, url, http.StatusFound)
}
