package api

import (
	"context"
	"net/http"

	"github.com/optimatime/optimatime/internal/domain"
)

// trustedUserHeader carries the resolved user ID. Real token verification
// happens upstream of this process; this repo trusts the header as-is.
const trustedUserHeader = "X-OptimaTime-User"

// trustedProfileHeader carries the user's scheduling profile
// (student/worker/entrepreneur). Defaults to "worker" when absent.
const trustedProfileHeader = "X-OptimaTime-Profile"

type userContextKey struct{}

// trustedUserMiddleware resolves the request's AuthenticatedUser from the
// trusted headers a front door (not part of this repo) is expected to set.
func trustedUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(trustedUserHeader)
		if id == "" {
			writeError(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
			return
		}
		profile := r.Header.Get(trustedProfileHeader)
		if profile == "" {
			profile = "worker"
		}
		user := domain.AuthenticatedUser{ID: id, Profile: profile}
		ctx := context.WithValue(r.Context(), userContextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFromContext retrieves the AuthenticatedUser set by
// trustedUserMiddleware. Callers in this package only reach here after the
// middleware ran, so the type assertion always succeeds.
func userFromContext(ctx context.Context) domain.AuthenticatedUser {
	user, _ := ctx.Value(userContextKey{}).(domain.AuthenticatedUser)
	return user
}
