package machinery

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fleetgrid/fleetgrid/internal/platform/httpx"
)

// Handler exposes the machinery directory over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers machinery routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listAssets)
}

type assetDTO struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenant_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (h *Handler) listAssets(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Tenant", "tenant id must be numeric")
		return
	}
	assets, err := h.service.ListByTenant(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list machinery", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]assetDTO, len(assets))
	for i, a := range assets {
		out[i] = assetDTO{ID: a.ID, TenantID: a.TenantID, Name: a.Name, Location: a.Location}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"machinery": out})
}
