package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/renshaw/smartlinks/internal/apperr"
	"github.com/renshaw/smartlinks/internal/linkservice"
	"github.com/renshaw/smartlinks/internal/refindex"
)

// Handler holds API route handlers.
type Handler struct {
	svc *linkservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *linkservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Render handles POST /api/render: substitutes every smartlink token in the
// submitted text.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid body"))
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{
		HTML: h.svc.Substitute(r.Context(), req.Text),
	})
}

// Resolve handles POST /api/resolve: resolves one token string without
// substituting it into surrounding text.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("token is required"))
		return
	}
	res, ok := h.svc.Resolve(req.Token)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("not a well-formed token"))
		return
	}
	resp := ResolveResponse{
		Resolved: res.Resolved,
		Reason:   res.Reason,
		HTML:     h.svc.Render(r.Context(), res),
	}
	if res.Resolved {
		resp.Prefix = res.Prefix
		resp.Locator = res.Entry.Locator
		resp.Display = res.Entry.Display
		resp.Attrs = res.Entry.Attrs
	}
	writeJSON(w, http.StatusOK, resp)
}

// Prefixes handles GET /api/prefixes.
func (h *Handler) Prefixes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PrefixesResponse{Prefixes: h.svc.Prefixes()})
}

// Rebuild handles POST /api/index/rebuild, the operator rebuild trigger.
// A source enumeration failure reports which source failed; the previous
// snapshot keeps serving.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Rebuild(r.Context()); err != nil {
		var enumErr *refindex.EnumerationError
		if errors.As(err, &enumErr) {
			writeJSON(w, http.StatusBadGateway, errResponse{
				Error:  enumErr.Error(),
				Source: enumErr.Prefix,
			})
			return
		}
		slog.Error("rebuild failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RebuildResponse{Entries: h.svc.IndexLen()})
}

// EntityUpdated handles POST /api/events/entity-updated, the
// entity-created-or-updated signal.
func (h *Handler) EntityUpdated(w http.ResponseWriter, r *http.Request) {
	h.entityEvent(w, r, h.svc.Upsert)
}

// EntityDeleted handles POST /api/events/entity-deleted, the entity-deleted
// signal.
func (h *Handler) EntityDeleted(w http.ResponseWriter, r *http.Request) {
	h.entityEvent(w, r, h.svc.Remove)
}

func (h *Handler) entityEvent(w http.ResponseWriter, r *http.Request, apply func(string, any) error) {
	var req EntityEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prefix == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("prefix and entity are required"))
		return
	}
	if err := apply(req.Prefix, req.Entity); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("unknown prefix"))
			return
		}
		slog.Error("entity event failed",
			slog.String("prefix", req.Prefix),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
