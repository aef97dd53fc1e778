package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coreybb/timetrack/auth"
	"github.com/coreybb/timetrack/webutil"
)

// RequireAuth resolves the Authorization token to a user and stores it on the
// request context. Requests without a valid token get 401.
func RequireAuth(resolver auth.TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(webutil.HeaderAuthorization)
			if header == "" {
				unauthorized(w, "Authentication credentials were not provided.")
				return
			}
			key, ok := auth.ParseAuthorizationHeader(header)
			if !ok {
				unauthorized(w, "Invalid token header.")
				return
			}

			user, err := resolver.ResolveToken(r.Context(), key)
			if errors.Is(err, auth.ErrUnauthenticated) {
				unauthorized(w, "Invalid token.")
				return
			}
			if err != nil {
				slog.Error("Token lookup failed", "path", r.URL.Path, "error", err)
				webutil.RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set(webutil.HeaderWWWAuthenticate, "Token")
	webutil.RespondWithError(w, http.StatusUnauthorized, message)
}

// SetHeader is a middleware to set a response header.
func SetHeader(key, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(key, value)
			next.ServeHTTP(w, r)
		})
	}
}
