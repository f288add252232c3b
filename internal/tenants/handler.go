package tenants

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fleetgrid/fleetgrid/internal/platform/httpx"
	"github.com/fleetgrid/fleetgrid/internal/roles"
)

// Handler exposes the tenant directory over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers tenant directory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listTenants)
	r.Get("/{tenantID}", h.getTenant)
}

type tenantDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) listTenants(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list tenants", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]tenantDTO, len(list))
	for i, t := range list {
		out[i] = toDTO(t)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tenants": out})
}

func (h *Handler) getTenant(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Tenant", "tenant id must be numeric")
		return
	}
	tenant, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get tenant", slog.Any("error", err), slog.Int64("tenant_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTO(tenant))
}

func toDTO(t Tenant) tenantDTO {
	kind := "customer"
	if t.Kind() == roles.TenantOperator {
		kind = "operator"
	}
	return tenantDTO{
		ID:        t.ID,
		Name:      t.Name,
		Kind:      kind,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
	}
}
