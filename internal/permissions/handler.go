package permissions

import (
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fleetgrid/fleetgrid/internal/platform/httpx"
	"github.com/fleetgrid/fleetgrid/internal/shared"
	"github.com/fleetgrid/fleetgrid/internal/users"
)

// Handler exposes the permission matrix over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	users     PrincipalSource
	mw        Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, principalSource PrincipalSource, mw Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		users:     principalSource,
		mw:        mw,
		validator: validator.New(),
	}
}

// MountRoutes registers matrix routes under a tenant scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.getMatrix)
	r.Post("/", h.saveMatrix)
	r.Post("/grant-all", h.grantAll)
	r.Post("/remove-all", h.removeAll)
	r.Get("/export", h.exportCSV)
}

type cellDTO struct {
	AssetID  int64           `json:"asset_id"`
	Values   map[string]bool `json:"values"`
	Editable map[string]bool `json:"editable"`
}

type rowDTO struct {
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Rank        int       `json:"rank"`
	Cells       []cellDTO `json:"cells"`
}

type omittedDTO struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Reason      string `json:"reason"`
}

type matrixDTO struct {
	TenantID int64        `json:"tenant_id"`
	AssetIDs []int64      `json:"asset_ids"`
	Rows     []rowDTO     `json:"rows"`
	Omitted  []omittedDTO `json:"omitted,omitempty"`
}

type mutationDTO struct {
	UserID     int64  `json:"user_id" validate:"required"`
	AssetID    int64  `json:"asset_id" validate:"required"`
	Capability string `json:"capability" validate:"required"`
	Value      bool   `json:"value"`
}

type saveRequest struct {
	Mutations []mutationDTO `json:"mutations" validate:"required,min=1,dive"`
}

type bulkRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

type saveResponse struct {
	BatchID   string    `json:"batch_id"`
	Submitted int       `json:"submitted"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Errors    []string  `json:"errors,omitempty"`
	Warning   string    `json:"warning,omitempty"`
	Matrix    matrixDTO `json:"matrix"`
}

func (h *Handler) getMatrix(w http.ResponseWriter, r *http.Request) {
	principal, tenantID, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	matrix, err := h.service.Matrix(r.Context(), principal, tenantID)
	if err != nil {
		h.logger.Error("assemble matrix", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toMatrixDTO(principal, matrix))
}

func (h *Handler) saveMatrix(w http.ResponseWriter, r *http.Request) {
	principal, tenantID, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	var req saveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	muts := make([]Mutation, len(req.Mutations))
	for i, m := range req.Mutations {
		capability, err := ParseCapability(m.Capability)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Unknown Capability", err.Error())
			return
		}
		muts[i] = Mutation{UserID: m.UserID, AssetID: m.AssetID, Capability: capability, Value: m.Value}
	}
	outcome, err := h.service.Save(r.Context(), principal, tenantID, muts)
	h.respondOutcome(w, principal, outcome, err)
}

func (h *Handler) grantAll(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.service.GrantAllAssets)
}

func (h *Handler) removeAll(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.service.RemoveAllAssets)
}

func (h *Handler) bulk(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, principal users.User, tenantID, targetID int64) (*SaveOutcome, error)) {
	principal, tenantID, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	var req bulkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	outcome, err := op(r.Context(), principal, tenantID, req.UserID)
	h.respondOutcome(w, principal, outcome, err)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	principal, tenantID, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	matrix, err := h.service.Matrix(r.Context(), principal, tenantID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="permissions.csv"`)

	guard := NewGuard(principal, matrix.Principal)
	cw := csv.NewWriter(w)
	header := []string{"user", "asset_id"}
	for _, c := range Capabilities() {
		header = append(header, c.String())
	}
	_ = cw.Write(header)
	for _, row := range matrix.Rows {
		for _, rec := range row.Set.Records {
			line := []string{row.User.DisplayName, strconv.FormatInt(rec.AssetID, 10)}
			for _, c := range Capabilities() {
				line = append(line, strconv.FormatBool(guard.DisplayValue(row.User, rec, c)))
			}
			_ = cw.Write(line)
		}
	}
	cw.Flush()
}

func (h *Handler) respondOutcome(w http.ResponseWriter, principal users.User, outcome *SaveOutcome, err error) {
	if err != nil {
		switch {
		case errors.Is(err, ErrPreconditionViolation):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Precondition Violation", err.Error())
		case errors.Is(err, ErrUnknownCapability):
			httpx.Problem(w, http.StatusBadRequest, "Unknown Capability", err.Error())
		case errors.Is(err, shared.ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown user or asset in scope")
		default:
			h.logger.Error("save matrix", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}

	res := outcome.Result
	resp := saveResponse{
		BatchID:   res.BatchID.String(),
		Submitted: res.Submitted,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Warning:   outcome.Warning,
		Matrix:    toMatrixDTO(principal, outcome.Matrix),
	}
	for _, e := range res.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	status := http.StatusOK
	if res.Submitted > 0 && res.Succeeded == 0 {
		// Nothing persisted at all: the store is unreachable.
		status = http.StatusBadGateway
	}
	httpx.JSON(w, status, resp)
}

func (h *Handler) requestScope(w http.ResponseWriter, r *http.Request) (users.User, int64, bool) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Tenant", "tenant id must be numeric")
		return users.User{}, 0, false
	}
	userID, ok := h.mw.CurrentUserID(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
		return users.User{}, 0, false
	}
	principal, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return users.User{}, 0, false
	}
	return principal, tenantID, true
}

func toMatrixDTO(principal users.User, m *Matrix) matrixDTO {
	guard := NewGuard(principal, m.Principal)
	dto := matrixDTO{TenantID: m.TenantID}
	for _, a := range m.Assets {
		dto.AssetIDs = append(dto.AssetIDs, a.ID)
	}
	for _, row := range m.Rows {
		r := rowDTO{
			UserID:      row.User.ID,
			DisplayName: row.User.DisplayName,
			Rank:        int(row.User.Member().Rank()),
		}
		for _, rec := range row.Set.Records {
			cell := cellDTO{
				AssetID:  rec.AssetID,
				Values:   make(map[string]bool, len(capabilityNames)),
				Editable: make(map[string]bool, len(capabilityNames)),
			}
			for _, c := range Capabilities() {
				cell.Values[c.String()] = guard.DisplayValue(row.User, rec, c)
				cell.Editable[c.String()] = guard.CanEdit(row.User, rec.AssetID, c)
			}
			r.Cells = append(r.Cells, cell)
		}
		dto.Rows = append(dto.Rows, r)
	}
	for _, o := range m.Omitted {
		dto.Omitted = append(dto.Omitted, omittedDTO{UserID: o.UserID, DisplayName: o.DisplayName, Reason: o.Reason})
	}
	return dto
}
