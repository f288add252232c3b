package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fleetgrid/fleetgrid/internal/audit"
	"github.com/fleetgrid/fleetgrid/internal/platform/httpx"
)

const (
	defaultDateRange  = 7 * 24 * time.Hour
	maxDateRangeHours = 24 * 90
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
}

// Handler menangani permintaan audit timeline.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	now     func() time.Time
}

// NewHandler membuat handler audit baru.
func NewHandler(logger *slog.Logger, service TimelineService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:  logger,
		service: service,
		now:     time.Now,
	}
}

type rowDTO struct {
	At       time.Time      `json:"at"`
	ActorID  int64          `json:"actor_id"`
	TenantID int64          `json:"tenant_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
}

type timelineDTO struct {
	Rows     []rowDTO `json:"rows"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	HasNext  bool     `json:"has_next"`
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}

	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filters", err.Error())
		return
	}

	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	dto := timelineDTO{
		Rows:     make([]rowDTO, 0, len(result.Rows)),
		Page:     result.Paging.Page,
		PageSize: result.Paging.PageSize,
		HasNext:  result.Paging.HasNext,
	}
	for _, row := range result.Rows {
		dto.Rows = append(dto.Rows, rowDTO{
			At:       row.At,
			ActorID:  row.ActorID,
			TenantID: row.TenantID,
			Action:   row.Action,
			Entity:   row.Entity,
			EntityID: row.EntityID,
			Meta:     row.Meta,
		})
	}
	httpx.JSON(w, http.StatusOK, dto)
}

func (h *Handler) parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	filters := audit.TimelineFilters{
		Entity: q.Get("entity"),
		Action: q.Get("action"),
	}

	var err error
	if filters.From, err = parseDate(q.Get("from")); err != nil {
		return filters, err
	}
	if filters.To, err = parseDate(q.Get("to")); err != nil {
		return filters, err
	}
	if filters.From.IsZero() && filters.To.IsZero() {
		now := h.now()
		filters.To = now
		filters.From = now.Add(-defaultDateRange)
	}
	if !filters.From.IsZero() && !filters.To.IsZero() {
		if filters.To.Before(filters.From) {
			filters.From, filters.To = filters.To, filters.From
		}
		if filters.To.Sub(filters.From) > maxDateRangeHours*time.Hour {
			filters.From = filters.To.Add(-maxDateRangeHours * time.Hour)
		}
	}

	if raw := q.Get("tenant_id"); raw != "" {
		if filters.TenantID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return filters, err
		}
	}
	if raw := q.Get("actor_id"); raw != "" {
		if filters.ActorID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return filters, err
		}
	}
	if raw := q.Get("page"); raw != "" {
		if filters.Page, err = strconv.Atoi(raw); err != nil {
			return filters, err
		}
	}
	if raw := q.Get("page_size"); raw != "" {
		if filters.PageSize, err = strconv.Atoi(raw); err != nil {
			return filters, err
		}
	}
	return filters, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}
