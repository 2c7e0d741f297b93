package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/splits/internal/app"
	"github.com/okian/splits/internal/adapters/sink"
	"github.com/okian/splits/internal/adapters/source"
	"github.com/okian/splits/internal/domain/estimator"
	"github.com/okian/splits/internal/domain/model"
	"github.com/okian/splits/internal/domain/timecodec"
	"github.com/okian/splits/pkg/errs"
)

var queryValidator = validator.New(validator.WithRequiredStructEnabled())

// estimateQuery holds the query parameters of POST /estimate.
type estimateQuery struct {
	Segments []string `validate:"omitempty,unique,dive,required"`
	Total    string
	Format   string `validate:"omitempty,oneof=csv xlsx parquet json"`
	Render   string `validate:"omitempty,oneof=seconds clock"`
	Lenient  string `validate:"omitempty,boolean"`
}

func parseEstimateQuery(v url.Values) estimateQuery {
	q := estimateQuery{
		Total:   strings.TrimSpace(v.Get("total")),
		Format:  strings.ToLower(strings.TrimSpace(v.Get("format"))),
		Render:  strings.ToLower(strings.TrimSpace(v.Get("render"))),
		Lenient: strings.TrimSpace(v.Get("lenient")),
	}
	if raw := v.Get("segments"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			q.Segments = append(q.Segments, strings.TrimSpace(s))
		}
	}
	return q
}

// estimateResponse is the JSON body of POST /estimate.
type estimateResponse struct {
	Report model.Report    `json:"report"`
	Table  json.RawMessage `json:"table"`
}

// EstimateHandler fills missing splits in an uploaded cohort.
type EstimateHandler struct {
	deps    Dependencies
	maxBody int64
}

// NewEstimateHandler creates a new estimate handler.
func NewEstimateHandler(deps Dependencies, maxBody int64) *EstimateHandler {
	return &EstimateHandler{deps: deps, maxBody: maxBody}
}

// HandlePostEstimate handles POST /estimate requests. The body is CSV, or
// XLSX when the content type says so.
func (h *EstimateHandler) HandlePostEstimate(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_estimate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	q := parseEstimateQuery(r.URL.Query())
	if err := queryValidator.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errs.Wrap(op, ErrBadRequest, err))
		return
	}

	layout := h.deps.Layout()
	if len(q.Segments) > 0 {
		layout.Segments = q.Segments
	}
	if q.Total != "" {
		layout.TotalKey = q.Total
	}
	lenient := h.deps.Lenient()
	if q.Lenient != "" {
		lenient, _ = strconv.ParseBool(q.Lenient)
	}
	render := h.deps.Render()
	if q.Render != "" {
		render = sink.Render(q.Render)
	}
	format := sink.FormatJSON
	if q.Format != "" {
		format = sink.Format(q.Format)
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	table, err := source.Read(r.Context(), body, inputFormat(r.Header.Get("Content-Type")))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", errs.Wrap(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", errs.Wrap(op, ErrBadRequest, err))
		return
	}

	out, err := h.deps.Process(r.Context(), service.Request{
		Source:  "http",
		Table:   table,
		Layout:  layout,
		Lenient: lenient,
	})
	if err != nil {
		writeProcessError(w, op, err)
		return
	}

	var buf bytes.Buffer
	if format == sink.FormatJSON {
		if err := sink.WriteJSON(&buf, out.Table, render); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, estimateResponse{Report: out.Report, Table: buf.Bytes()})
		return
	}
	if err := sink.Write(&buf, out.Table, format, sink.WithRender(render)); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="filled`+format.Ext()+`"`)
	w.Header().Set("X-Report-ID", out.Report.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// writeProcessError maps estimation failures to 422 and input problems to 400.
func writeProcessError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, estimator.ErrDegenerateCohort),
		errors.Is(err, estimator.ErrDegenerateRow),
		errors.Is(err, estimator.ErrNegativeUncounted),
		errors.Is(err, estimator.ErrUnknownSegment):
		writeError(w, http.StatusUnprocessableEntity, "unprocessable", errs.Wrap(op, ErrUnprocessable, err))
	case errors.Is(err, timecodec.ErrFormat),
		errors.Is(err, model.ErrMissingColumn),
		errors.Is(err, model.ErrInvalidLayout),
		errors.Is(err, estimator.ErrColumn):
		writeError(w, http.StatusBadRequest, "bad_request", errs.Wrap(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func inputFormat(contentType string) source.Format {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "spreadsheetml") || strings.Contains(ct, "xlsx") {
		return source.FormatXLSX
	}
	return source.FormatCSV
}
