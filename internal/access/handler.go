package access

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aegis-admin/aegis-admin/internal/platform/httpx"
	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// Handler wires the user access JSON API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     shared.PermissionGuard
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard shared.PermissionGuard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers access routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard("users.view"))
		r.Get("/users/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard("users.edit"))
		r.Put("/users/{id}", h.set)
		r.Post("/assign", h.assignByEmail)
	})
}

type accessResponse struct {
	UserID               string   `json:"userId"`
	RoleNames            []string `json:"roleNames"`
	CustomPermissions    []string `json:"customPermissions"`
	EffectivePermissions []string `json:"effectivePermissions"`
}

func toResponse(a Access) accessResponse {
	return accessResponse{
		UserID:               a.UserID,
		RoleNames:            a.RoleNames,
		CustomPermissions:    a.CustomPermissions,
		EffectivePermissions: a.EffectivePermissions,
	}
}

type setAccessRequest struct {
	RoleNames         []string `json:"roleNames" validate:"required"`
	CustomPermissions []string `json:"customPermissions"`
}

type assignByEmailRequest struct {
	Email             string   `json:"email" validate:"required,email"`
	Role              string   `json:"role" validate:"required"`
	CustomPermissions []string `json:"customPermissions"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(record))
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	var req setAccessRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	record, err := h.service.SetAccess(r.Context(), actorID(r), chi.URLParam(r, "id"), req.RoleNames, req.CustomPermissions)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(record))
}

func (h *Handler) assignByEmail(w http.ResponseWriter, r *http.Request) {
	var req assignByEmailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	record, err := h.service.AssignByEmail(r.Context(), actorID(r), req.Email, req.Role, req.CustomPermissions)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(record))
}

func actorID(r *http.Request) string {
	if id, ok := shared.IdentityFromContext(r.Context()); ok {
		return id.UserID
	}
	return ""
}
