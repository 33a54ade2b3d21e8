package listings

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/harborstay/harborstay/internal/platform/httpx"
	"github.com/harborstay/harborstay/internal/policy"
)

// Handler exposes listing registry endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      policy.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, mw policy.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes attaches listing routes. The feed and single-listing reads
// are public; writes require an authenticated principal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.ListActive)
	r.Get("/{id}", h.Show)

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePrincipal)
		r.Post("/", h.Create)
		r.Get("/mine", h.Mine)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Deactivate)
	})
}

func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	result, err := h.service.ListActive(r.Context(), ListActiveRequest{Page: page, PerPage: perPage})
	if err != nil {
		h.logger.Error("list active listings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid listing id")
		return
	}
	// Anonymous readers get the zero principal, which only passes the
	// active-listing predicate.
	actor, _ := policy.PrincipalFromContext(r.Context())

	listing, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := policy.PrincipalFromContext(r.Context())

	var req CreateListingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	listing, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("create listing", slog.Int64("owner_id", actor.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, listing)
}

func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, _ := policy.PrincipalFromContext(r.Context())

	result, err := h.service.ListForOwner(r.Context(), actor, actor.UserID)
	if err != nil {
		h.logger.Error("list owner listings", slog.Int64("owner_id", actor.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"listings": result})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := policy.PrincipalFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid listing id")
		return
	}

	var req UpdateListingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	listing, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		h.logger.Error("update listing", slog.Int64("listing_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	actor, _ := policy.PrincipalFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid listing id")
		return
	}

	if err := h.service.Deactivate(r.Context(), actor, id); err != nil {
		h.logger.Error("deactivate listing", slog.Int64("listing_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
