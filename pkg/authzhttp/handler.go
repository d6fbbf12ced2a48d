package authzhttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authzkit/pkg/authz"
	"github.com/dmitrymomot/authzkit/pkg/clientip"
	"github.com/dmitrymomot/authzkit/pkg/logger"
)

// maxBodyBytes caps decision request bodies. Attribute maps are small;
// anything larger is a client defect.
const maxBodyBytes = 1 << 20

// Handler wires the decision engine's operations to HTTP endpoints.
type Handler struct {
	log    *slog.Logger
	engine *authz.Engine
}

// NewHandler constructs a Handler. A nil logger falls back to
// slog.Default.
func NewHandler(log *slog.Logger, engine *authz.Engine) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, engine: engine}
}

// Router builds a chi router with the standard middleware chain and
// all decision endpoints mounted. Extra handlers, such as health
// probes, can be registered by the caller afterwards.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(clientip.Middleware)
	h.MountRoutes(r)
	return r
}

// MountRoutes registers decision endpoints on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/v1/authorize", h.authorize)
	r.Post("/v1/authorize/batch", h.authorizeBatch)
	r.Get("/v1/principals/{id}/permissions", h.listPermissions)
	r.Get("/v1/principals/{id}/permissions/{name}", h.checkPermission)
	r.Get("/v1/principals/{id}/roles/{name}", h.checkRole)
	r.Delete("/v1/principals/{id}/cache", h.invalidateCache)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) {
	var req authz.Request
	if !h.decode(w, r, &req) {
		return
	}
	if req.PrincipalID == "" || req.Action == "" {
		h.writeError(w, http.StatusBadRequest, "principal_id and action are required")
		return
	}

	if req.ClientIP == "" {
		req.ClientIP = clientip.IPFromContext(r.Context())
	}
	if req.CountryCode == "" {
		req.CountryCode = clientip.CountryFromContext(r.Context())
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}

	h.writeJSON(w, http.StatusOK, h.engine.Authorize(r.Context(), req))
}

type batchRequest struct {
	PrincipalID string   `json:"principal_id"`
	Action      string   `json:"action"`
	ResourceIDs []string `json:"resource_ids"`
}

type batchResponse struct {
	Results map[string]authz.Result `json:"results"`
}

func (h *Handler) authorizeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PrincipalID == "" || req.Action == "" {
		h.writeError(w, http.StatusBadRequest, "principal_id and action are required")
		return
	}
	if len(req.ResourceIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "resource_ids must not be empty")
		return
	}

	results := h.engine.AuthorizeMultiple(r.Context(), req.PrincipalID, req.Action, req.ResourceIDs)
	h.writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	names := h.engine.UserPermissions(r.Context(), id)
	if names == nil {
		names = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"permissions": names})
}

func (h *Handler) checkPermission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")
	h.writeJSON(w, http.StatusOK, map[string]bool{"allowed": h.engine.HasPermission(r.Context(), id, name)})
}

func (h *Handler) checkRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")
	h.writeJSON(w, http.StatusOK, map[string]bool{"allowed": h.engine.HasRole(r.Context(), id, name)})
}

func (h *Handler) invalidateCache(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.InvalidatePrincipal(r.Context(), id); err != nil {
		h.log.ErrorContext(r.Context(), "cache invalidation failed",
			logger.PrincipalID(id), logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("response encoding failed", logger.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
