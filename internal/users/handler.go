package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fleetgrid/fleetgrid/internal/platform/httpx"
	"github.com/fleetgrid/fleetgrid/internal/roles"
)

// Handler exposes the user directory over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user directory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
}

type userDTO struct {
	ID          int64    `json:"id"`
	TenantID    int64    `json:"tenant_id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Labels      []string `json:"labels"`
	Rank        int      `json:"rank"`
	IsActive    bool     `json:"is_active"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Tenant", "tenant id must be numeric")
		return
	}
	list, err := h.service.ListByTenant(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userDTO, len(list))
	for i, u := range list {
		out[i] = toDTO(u)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}

func toDTO(u User) userDTO {
	labels := make([]string, len(u.Labels))
	for i, l := range u.Labels {
		labels[i] = string(l)
	}
	return userDTO{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Labels:      labels,
		Rank:        int(roles.Member{TenantID: u.TenantID, Labels: u.Labels}.Rank()),
		IsActive:    u.IsActive,
	}
}
