package roles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/harborstay/harborstay/internal/platform/httpx"
	"github.com/harborstay/harborstay/internal/policy"
)

// Handler exposes admin role management endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	mw       policy.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, mw policy.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		mw:       mw,
	}
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin subadmin user"`
}

// MountRoutes attaches role management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireRole(policy.RoleAdmin))
		r.Get("/users/{id}/roles", h.List)
		r.Post("/users/{id}/roles", h.Assign)
		r.Delete("/users/{id}/roles/{role}", h.Revoke)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := policy.PrincipalFromContext(r.Context())
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	assignments, err := h.service.ListAssignments(r.Context(), actor, userID)
	if err != nil {
		h.logger.Error("list role assignments", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if assignments == nil {
		assignments = []Assignment{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, _ := policy.PrincipalFromContext(r.Context())
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Assign(r.Context(), actor, userID, policy.Role(req.Role)); err != nil {
		h.logger.Error("assign role", slog.Int64("user_id", userID), slog.String("role", req.Role), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	actor, _ := policy.PrincipalFromContext(r.Context())
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	if err := h.service.Revoke(r.Context(), actor, userID, policy.Role(chi.URLParam(r, "role"))); err != nil {
		h.logger.Error("revoke role", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
