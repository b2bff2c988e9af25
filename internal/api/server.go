// Package api exposes the community over HTTP: JSON endpoints for
// accounts, messages, profiles and uploads, plus a server-sent-events
// stream carrying the live message feed.
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/wisdomcircle/circled/internal/assets"
	"github.com/wisdomcircle/circled/internal/chat"
	"github.com/wisdomcircle/circled/internal/identity"
	"github.com/wisdomcircle/circled/internal/profiles"
)

// Server bundles the services behind the HTTP surface.
type Server struct {
	identity *identity.Service
	chat     *chat.Store
	profiles *profiles.Service
	assets   assets.Storage
	assetDir string
	logger   zerolog.Logger
}

// NewServer builds the HTTP server over the given services. assetDir is
// the on-disk directory served at /assets/.
func NewServer(id *identity.Service, store *chat.Store, profs *profiles.Service, uploads assets.Storage, assetDir string, logger zerolog.Logger) *Server {
	return &Server{
		identity: id,
		chat:     store,
		profiles: profs,
		assets:   uploads,
		assetDir: assetDir,
		logger:   logger,
	}
}

// Router assembles the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(s.assetDir))))

	r.Route("/api", func(r chi.Router) {
		r.Use(withViewer(s.identity, s.logger))

		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Get("/messages", s.handleListMessages)
		r.Get("/messages/stream", s.handleMessageStream)

		r.Get("/profiles", s.handleDirectory)

		r.Group(func(r chi.Router) {
			r.Use(requireViewer(s.logger))
			r.Post("/messages", s.handlePostMessage)
			r.Get("/profiles/me", s.handleGetProfile)
			r.Put("/profiles/me", s.handleUpdateProfile)
			r.Post("/uploads", s.handleUpload)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.chat.Count(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("health check failed")
		respondError(w, s.logger, fmt.Errorf("health check: %w", err))
		return
	}
	respondData(w, http.StatusOK, map[string]any{"status": "ok", "messages": n})
}
