package session

import (
	"context"
	"net/http"

	"github.com/pysugar/meeting-nexus/internal/apperr"
	"github.com/pysugar/meeting-nexus/internal/db/models"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	userKey
)

// RequireIdentity rejects requests without an identity cookie with 401.
// The credential record is not consulted.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := Identity(r)
		if !ok {
			apperr.Write(w, apperr.ErrUnauthenticated, "")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// RequireConnected resolves the full credential record, answering 401 for
// a missing cookie and 400 for an identity that is not connected.
func (res *Resolver) RequireConnected(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := res.Resolve(r)
		if err != nil {
			apperr.Write(w, err, "Failed to resolve session")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, user.GoogleID)
		ctx = context.WithValue(ctx, userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFrom returns the identity stored by either middleware.
func IdentityFrom(ctx context.Context) string {
	id, _ := ctx.Value(identityKey).(string)
	return id
}

// UserFrom returns the record stored by RequireConnected.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}
