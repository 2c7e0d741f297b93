// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/splits/internal/app"
	"github.com/okian/splits/internal/adapters/sink"
	"github.com/okian/splits/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// Process estimates one cohort and stores its report.
	Process(ctx context.Context, req service.Request) (service.Outcome, error)

	// Defaults applied when a request leaves a parameter out.
	Layout() model.Layout
	Lenient() bool
	Render() sink.Render

	// Read operations expose stored reports.
	Report(ctx context.Context, id string) (model.Report, error)
	Reports(ctx context.Context, n int) ([]model.Report, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	estimateHandler *EstimateHandler
	reportsHandler  *ReportsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{maxReportLimit: defaultMaxReportLimit, maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		estimateHandler: NewEstimateHandler(deps, o.maxBodyBytes),
		reportsHandler:  NewReportsHandler(deps, o.maxReportLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/estimate", MetricsMiddleware(s.estimateHandler.HandlePostEstimate, "estimate"))
	mux.HandleFunc("/reports", MetricsMiddleware(s.reportsHandler.HandleListReports, "reports"))
	mux.HandleFunc("/reports/", MetricsMiddleware(s.reportsHandler.HandleGetReport, "report"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
