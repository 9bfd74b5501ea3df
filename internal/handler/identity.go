package handler

import (
	"context"
	"net/http"

	"github.com/marketbay/fulfillment/internal/domain/fault"
)

// Identity is the authenticated caller, propagated by the edge gateway in
// trusted headers. This service performs authorization only; authentication
// happens upstream.
type Identity struct {
	UserID string
	Role   string
}

// RoleAdmin grants access to the /api/admin surface.
const RoleAdmin = "admin"

type identityKey struct{}

// IdentityFromContext extracts the caller identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// WithIdentity reads the gateway identity headers into the request context.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Identity{
			UserID: r.Header.Get("X-User-ID"),
			Role:   r.Header.Get("X-User-Role"),
		}
		if id.UserID != "" {
			r = r.WithContext(context.WithValue(r.Context(), identityKey{}, id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests without a caller identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{
				Code:    http.StatusUnauthorized,
				Kind:    string(fault.KindForbidden),
				Message: "authentication required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{
				Code:    http.StatusUnauthorized,
				Kind:    string(fault.KindForbidden),
				Message: "authentication required",
			})
			return
		}
		if id.Role != RoleAdmin {
			writeJSON(w, http.StatusForbidden, errorBody{
				Code:    http.StatusForbidden,
				Kind:    string(fault.KindForbidden),
				Message: "admin role required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
