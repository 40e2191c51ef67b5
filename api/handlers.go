/*
handlers.go - HTTP API handlers for the payroll export

PURPOSE:
  Exposes period selection, export preview and download, queued exports,
  the run history and the demo scenarios over REST. Handlers parse the
  request, delegate to runner.Pipeline and serialize the outcome.

ENDPOINTS:
  Health:
    GET    /api/health

  Periods:
    GET    /api/periods/default          Period selected by default today
    GET    /api/periods/{year}/{month}   Period starting on the 11th

  Exports:
    POST   /api/exports/preview          Compute, return JSON
    POST   /api/exports?format=xlsx      Compute, render, record, download
    POST   /api/exports/async            Enqueue with the server key (503 without a queue)

  Runs:
    GET    /api/runs?limit=20            Newest first
    GET    /api/runs/{id}

  Scenarios:
    GET    /api/scenarios
    POST   /api/scenarios/{id}/preview   No credential needed

CREDENTIAL:
  The RotaCloud key comes from the X-Rotacloud-Key header, falling back to
  the server's configured key. Missing on an upstream call: 400.
  The async endpoint only runs with the server's key: 400 without one, and
  400 when the header carries a different key.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid period or request, missing credential
  - 404: Unknown run or scenario
  - 502: RotaCloud unreachable
  - 503: Queue not configured
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - runner/runner.go: What an export does
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-export/export"
	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/jobs"
	"github.com/warp/payroll-export/payroll"
	"github.com/warp/payroll-export/runner"
)

// APIKeyHeader carries the caller's RotaCloud key.
const APIKeyHeader = "X-Rotacloud-Key"

// Enqueuer submits exports to the job queue. *jobs.Client satisfies it.
type Enqueuer interface {
	EnqueueExport(ctx context.Context, payload jobs.ExportPayload) (string, error)
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Runner    *runner.Pipeline
	Ledger    generic.RunLedger
	Queue     Enqueuer // nil when Redis is not configured
	Scenarios *ScenarioCatalog

	APIKey   string                                  // fallback when the header is absent
	Defaults func(generic.Period) payroll.RunRequest // configured exclusions, rate, concurrency
	Location *time.Location
	Logger   *slog.Logger
	Now      func() time.Time
}

// NewHandler creates a handler. Defaults may be nil.
func NewHandler(p *runner.Pipeline, ledger generic.RunLedger, scenarios *ScenarioCatalog, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	loc := time.UTC
	if p != nil && p.Location != nil {
		loc = p.Location
	}
	return &Handler{
		Runner:    p,
		Ledger:    ledger,
		Scenarios: scenarios,
		Defaults:  payroll.NewRunRequest,
		Location:  loc,
		Logger:    logger,
		Now:       time.Now,
	}
}

// =============================================================================
// HEALTH & PERIODS
// =============================================================================

// Health reports liveness and what is configured.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthDTO{
		Status:     "ok",
		Time:       h.Now().UTC().Format(time.RFC3339),
		Credential: h.APIKey != "",
		Queue:      h.Queue != nil,
	})
}

// DefaultPeriod returns the period selected when none is given.
// GET /api/periods/default
func (h *Handler) DefaultPeriod(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toPeriodDTO(h.defaultPeriod()))
}

// GetPeriod returns the period starting on the 11th of year/month.
// GET /api/periods/{year}/{month}
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	year, err1 := strconv.Atoi(chi.URLParam(r, "year"))
	month, err2 := strconv.Atoi(chi.URLParam(r, "month"))
	if err := errors.Join(err1, err2); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year or month", err)
		return
	}
	p, err := payroll.PeriodFor(year, time.Month(month))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(p))
}

func (h *Handler) defaultPeriod() generic.Period {
	return payroll.DefaultPeriod(generic.DateOf(h.Now().In(h.Location)))
}

// =============================================================================
// EXPORTS
// =============================================================================

// PreviewExport computes a run and returns it as JSON. Nothing is recorded.
// POST /api/exports/preview
func (h *Handler) PreviewExport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRunRequest(w, r)
	if !ok {
		return
	}
	res, err := h.Runner.Preview(r.Context(), req, h.apiKey(r))
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreviewDTO(res))
}

// CreateExport computes, renders and records a run, returning the file.
// POST /api/exports?format=xlsx|csv|pdf
func (h *Handler) CreateExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err)
		return
	}
	req, ok := h.decodeRunRequest(w, r)
	if !ok {
		return
	}

	out, err := h.Runner.Execute(r.Context(), runner.Job{
		Request: req,
		APIKey:  h.apiKey(r),
		Trigger: generic.TriggerAPI,
		Formats: []export.Format{format},
		Record:  true,
	})
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	a := out.Artifacts[0]
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
	w.Header().Set("X-Run-Id", string(out.Run.ID))
	w.Header().Set("X-Run-Digest", out.Run.Digest)
	w.Header().Set("X-Run-Warnings", strconv.Itoa(len(out.Run.Warnings)))
	w.WriteHeader(http.StatusOK)
	w.Write(a.Data)
}

// EnqueueExport places the export on the job queue. Queued exports run
// with the key configured on the server and worker: a caller's own key is
// rejected rather than silently replaced.
// POST /api/exports/async
func (h *Handler) EnqueueExport(w http.ResponseWriter, r *http.Request) {
	if h.Queue == nil {
		writeError(w, http.StatusServiceUnavailable, "Job queue not configured", nil)
		return
	}
	if h.APIKey == "" {
		writeError(w, http.StatusBadRequest, "RotaCloud API key required",
			fmt.Errorf("queued exports need ROTACLOUD_API_KEY: %w", generic.ErrMissingCredential))
		return
	}
	if key := r.Header.Get(APIKeyHeader); key != "" && key != h.APIKey {
		writeError(w, http.StatusBadRequest, "Queued exports use the server's RotaCloud key",
			fmt.Errorf("%s is not accepted on the async path: %w", APIKeyHeader, generic.ErrInvalidRequest))
		return
	}
	body, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}
	period, err := h.period(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	payload := jobs.ExportPayload{
		Year:    period.Start.Year(),
		Month:   int(period.Start.Month()),
		Trigger: string(generic.TriggerQueue),
	}
	if body.Excluded != nil {
		payload.Excluded = *body.Excluded
	}
	if body.OvertimeRate != nil {
		payload.OvertimeRate = *body.OvertimeRate
	}
	id, err := h.Queue.EnqueueExport(r.Context(), payload)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Failed to enqueue export", err)
		return
	}
	writeJSON(w, http.StatusAccepted, EnqueueResponse{TaskID: id, Period: toPeriodDTO(period)})
}

// =============================================================================
// RUN HISTORY
// =============================================================================

// ListRuns returns recorded runs, newest first.
// GET /api/runs?limit=20
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Ledger.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one recorded run.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Ledger.GetRun(r.Context(), generic.RunID(chi.URLParam(r, "id")))
	if err != nil {
		if generic.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Run not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ListScenarios returns the built-in data sets.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	list := h.Scenarios.List()
	dtos := make([]ScenarioDTO, len(list))
	for i, ds := range list {
		dtos[i] = ScenarioDTO{ID: ds.ID, Name: ds.Name, Description: ds.Description, Period: toPeriodDTO(ds.Period)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PreviewScenario runs the engine over a built-in data set. The body may
// override exclusions and the overtime rate; the period is the data set's.
// POST /api/scenarios/{id}/preview
func (h *Handler) PreviewScenario(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.Scenarios.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}
	body, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}
	body.Year, body.Month = ds.Period.Start.Year(), int(ds.Period.Start.Month())
	req, err := h.runRequest(body)
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	res, err := h.Runner.PreviewWith(r.Context(), ds.Source, req)
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreviewDTO(res))
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

var validate = validator.New()

// decodeExportRequest reads an optional JSON body.
func decodeExportRequest(w http.ResponseWriter, r *http.Request) (ExportRequest, bool) {
	var body ExportRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return body, false
		}
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return body, false
	}
	return body, true
}

func (h *Handler) decodeRunRequest(w http.ResponseWriter, r *http.Request) (payroll.RunRequest, bool) {
	body, ok := decodeExportRequest(w, r)
	if !ok {
		return payroll.RunRequest{}, false
	}
	req, err := h.runRequest(body)
	if err != nil {
		h.writeRunError(w, err)
		return payroll.RunRequest{}, false
	}
	return req, true
}

func (h *Handler) period(body ExportRequest) (generic.Period, error) {
	if body.Year == 0 && body.Month == 0 {
		return h.defaultPeriod(), nil
	}
	return payroll.PeriodFor(body.Year, time.Month(body.Month))
}

// runRequest applies the body on top of the configured defaults.
func (h *Handler) runRequest(body ExportRequest) (payroll.RunRequest, error) {
	p, err := h.period(body)
	if err != nil {
		return payroll.RunRequest{}, err
	}
	defaults := h.Defaults
	if defaults == nil {
		defaults = payroll.NewRunRequest
	}
	req := defaults(p)
	if body.Excluded != nil {
		req.ExcludedEmployees = nil
		for _, id := range *body.Excluded {
			req.ExcludedEmployees = append(req.ExcludedEmployees, payroll.EmployeeID(id))
		}
	}
	if body.OvertimeRate != nil {
		rate, err := decimal.NewFromString(*body.OvertimeRate)
		if err != nil {
			return payroll.RunRequest{}, fmt.Errorf("overtime_rate: %w", generic.ErrInvalidRequest)
		}
		req.OvertimeRate = rate
	}
	req.Debug = body.Debug
	return req, req.Validate()
}

func (h *Handler) apiKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	return h.APIKey
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeRunError maps engine and runner errors onto HTTP statuses.
func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, generic.ErrMissingCredential):
		writeError(w, http.StatusBadRequest, "RotaCloud API key required", err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid export request", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case generic.IsUpstreamError(err):
		writeError(w, http.StatusBadGateway, "RotaCloud unavailable", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "Export timed out", err)
	default:
		h.Logger.Error("export failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Export failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
