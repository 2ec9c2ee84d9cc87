package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/renshaw/smartlinks/internal/linkservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *linkservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Resolution surface.
	r.Post("/render", h.Render)
	r.Post("/resolve", h.Resolve)
	r.Get("/prefixes", h.Prefixes)

	// Operator rebuild trigger.
	r.Post("/index/rebuild", h.Rebuild)

	// Incremental change signals from the hosting application.
	r.Post("/events/entity-updated", h.EntityUpdated)
	r.Post("/events/entity-deleted", h.EntityDeleted)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
