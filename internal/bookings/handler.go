package bookings

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/harborstay/harborstay/internal/platform/httpx"
	"github.com/harborstay/harborstay/internal/policy"
)

// Handler exposes booking lifecycle endpoints. Every route requires an
// authenticated principal.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      policy.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, mw policy.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes attaches booking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePrincipal)
		r.Post("/", h.Submit)
		r.Get("/mine", h.Mine)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/{id}", h.Show)
		r.Post("/{id}/decision", h.Decide)
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, _ := policy.PrincipalFromContext(r.Context())

	var req SubmitBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	booking, err := h.service.Submit(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("submit booking", slog.Int64("user_id", actor.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, booking)
}

func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, _ := policy.PrincipalFromContext(r.Context())

	result, err := h.service.ListForRequester(r.Context(), actor)
	if err != nil {
		h.logger.Error("list requester bookings", slog.Int64("user_id", actor.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bookings": result})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	actor, _ := policy.PrincipalFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}

	booking, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, booking)
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	actor, _ := policy.PrincipalFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}

	var req DecideBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	booking, err := h.service.Decide(r.Context(), actor, id, req)
	if err != nil {
		h.logger.Error("decide booking", slog.Int64("booking_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, booking)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, _ := policy.PrincipalFromContext(r.Context())

	dashboard, err := h.service.OwnerDashboard(r.Context(), actor)
	if err != nil {
		h.logger.Error("booking dashboard", slog.Int64("user_id", actor.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}
