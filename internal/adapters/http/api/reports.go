package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/splits/internal/adapters/repository"
	"github.com/okian/splits/internal/domain/model"
	"github.com/okian/splits/pkg/errs"
)

const defaultReportLimit = 20

// ReportDependencies defines the interface for report reads.
type ReportDependencies interface {
	Report(ctx context.Context, id string) (model.Report, error)
	Reports(ctx context.Context, n int) ([]model.Report, error)
}

type reportsResponse struct {
	Reports []model.Report `json:"reports"`
}

// ReportsHandler handles report requests.
type ReportsHandler struct {
	deps     ReportDependencies
	maxLimit int
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportDependencies, maxLimit int) *ReportsHandler {
	return &ReportsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleListReports handles GET /reports?limit=N requests.
func (h *ReportsHandler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_reports"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := defaultReportLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", errs.New(op, ErrBadRequest))
			return
		}
		limit = n
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	reports, err := h.deps.Reports(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if reports == nil {
		reports = []model.Report{}
	}
	writeJSON(w, http.StatusOK, reportsResponse{Reports: reports})
}

// HandleGetReport handles GET /reports/{id} requests.
func (h *ReportsHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/reports/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", errs.New(op, ErrBadRequest))
		return
	}
	report, err := h.deps.Report(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", errs.Wrap(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
