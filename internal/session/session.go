// Package session binds inbound requests to a Google identity through two
// plain cookies. There is no server-side session table: the identity cookie
// is resolved against the credential store on every request.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/db"
	"github.com/pysugar/meeting-nexus/internal/db/models"
)

const (
	CookieUserID    = "user_id"
	CookieUserEmail = "user_email"

	// MaxAge is the lifetime of both session cookies.
	MaxAge = 7 * 24 * time.Hour
)

// UserLookup resolves an identity to its credential record.
type UserLookup interface {
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
}

// Cookies writes and clears the session cookies.
type Cookies struct {
	// Secure marks cookies HTTPS-only; set in production.
	Secure bool
}

// Set issues both session cookies for user.
func (c Cookies) Set(w http.ResponseWriter, user *models.User) {
	http.SetCookie(w, c.cookie(CookieUserID, user.GoogleID, int(MaxAge.Seconds())))
	http.SetCookie(w, c.cookie(CookieUserEmail, user.Email, int(MaxAge.Seconds())))
}

// Clear expires both session cookies. The credential record is untouched.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(CookieUserID, "", -1))
	http.SetCookie(w, c.cookie(CookieUserEmail, "", -1))
}

func (c Cookies) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Identity returns the identity carried by the request cookie.
func Identity(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieUserID)
	if err != nil {
		return "", false
	}
	id := strings.TrimSpace(c.Value)
	return id, id != ""
}

// Resolver maps requests to credential records.
type Resolver struct {
	users UserLookup
}

func NewResolver(users UserLookup) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the user for the request. No identity cookie yields
// Unauthenticated; an identity without a usable record yields
// IntegrationNotConnected.
func (res *Resolver) Resolve(r *http.Request) (*models.User, error) {
	id, ok := Identity(r)
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	user, err := res.users.FindByGoogleID(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.ErrNotConnected
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load user", err)
	}
	if !user.HasAccessToken() {
		return nil, apperr.ErrNotConnected
	}
	return user, nil
}

// Connected reports whether the request's identity has a credential record.
// A missing cookie is simply not connected.
func (res *Resolver) Connected(r *http.Request) (bool, error) {
	id, ok := Identity(r)
	if !ok {
		return false, nil
	}
	_, err := res.users.FindByGoogleID(r.Context(), id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
