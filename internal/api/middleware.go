package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/identity"
	"github.com/wisdomcircle/circled/internal/models"
)

type contextKey string

const viewerKey contextKey = "viewer"

// viewerFrom returns the authenticated viewer, zero when anonymous.
func viewerFrom(ctx context.Context) models.Viewer {
	v, _ := ctx.Value(viewerKey).(models.Viewer)
	return v
}

// withViewer resolves the bearer token when present and stores the
// viewer in the request context. Requests without a token pass through
// anonymous; only a token that fails verification is rejected.
func withViewer(resolver identity.Resolver, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			viewer, err := resolver.Resolve(token)
			if err != nil {
				respondError(w, logger, err)
				return
			}
			ctx := context.WithValue(r.Context(), viewerKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireViewer rejects anonymous requests.
func requireViewer(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !viewerFrom(r.Context()).IsResolved() {
				respondError(w, logger, models.AuthError("authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}

// requestLogger logs one line per request in the daemon's structured
// format.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("request handled")
		})
	}
}
