/*
handlers.go - HTTP API handlers for the commission engine

PURPOSE:
  Exposes commission calculation and its administration via REST API.
  Handles HTTP request/response, JSON serialization, request validation,
  and delegates to the calculation service and the store.

ENDPOINTS:
  Runs (runs.go):
    POST   /api/runs                  Upload an .xlsx workbook ("workbook") or
                                      CSV sheets, calculate, store
    GET    /api/runs                  List stored runs, newest first
    GET    /api/runs/{id}             Stored run with detailed results
    POST   /api/calculations          Calculate from a JSON body

  Admin (admin.go):
    GET    /api/rules                 Bracket table
    POST   /api/rules                 Add a bracket
    PUT    /api/rules/{id}            Replace a bracket
    DELETE /api/rules/{id}            Remove a bracket
    GET    /api/targets               Stored monthly targets
    PUT    /api/targets               Upsert one month's targets
    DELETE /api/targets/{year}/{month}
    GET    /api/settings              Business settings
    PUT    /api/settings/{key}        Edit a setting (invalidates the snapshot)

  Other:
    GET    /api/schemas               Expected upload sheets and columns
    GET    /api/scenarios             Demo datasets
    POST   /api/scenarios/run         Calculate a demo dataset
    GET    /healthz                   Database reachability
    GET    /metrics                   Prometheus

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, failed validation rules
  - 404: Run, rule, target or setting not found
  - 422: Uploaded sheets or JSON rows failed schema validation
         (row-addressed details)
  - 503: No usable settings snapshot; runs are refused
  - 500: Internal errors

SECURITY NOTE:
  No authentication. Access control is out of scope for this service and
  must be provided in front of it.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/warp/commission-engine/calculation"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/dataset"
	"github.com/warp/commission-engine/metrics"
	"github.com/warp/commission-engine/settings"
	"github.com/warp/commission-engine/store/sqlite"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// DefaultMaxUploadBytes bounds a multipart upload.
const DefaultMaxUploadBytes int64 = 32 << 20

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Settings *settings.Provider
	Calc     *calculation.Service
	Metrics  *metrics.Metrics

	MaxUploadBytes int64

	log      *zap.Logger
	validate *validator.Validate
}

// NewHandler wires a handler over store. m and log may be nil.
func NewHandler(store *sqlite.Store, provider *settings.Provider, m *metrics.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	calc := &calculation.Service{
		Config:  provider,
		Rules:   store,
		Targets: store,
		Runs:    store,
		Log:     log,
	}
	if m != nil {
		calc.Observe = m
	}
	return &Handler{
		Store:          store,
		Settings:       provider,
		Calc:           calc,
		Metrics:        m,
		MaxUploadBytes: DefaultMaxUploadBytes,
		log:            log,
		validate:       validator.New(),
	}
}

// =============================================================================
// HEALTH AND SCHEMAS
// =============================================================================

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListSchemas describes the sheets POST /api/runs accepts.
func (h *Handler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	out := make([]SchemaDTO, 0, len(uploadFields))
	for _, f := range uploadFields {
		dto := SchemaDTO{Field: f.field, Name: f.schema.Name, File: f.schema.File}
		for _, c := range f.schema.Columns {
			dto.Columns = append(dto.Columns, ColumnDTO{
				Key:      c.Key,
				Header:   c.Header,
				Aliases:  c.Aliases,
				Required: c.Required,
				Numeric:  c.Numeric,
			})
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// HELPERS
// =============================================================================

// decodeAndValidate reads a JSON body into dst and runs validator tags.
// On failure it writes the 400 response and returns false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make([]FieldErrorDTO, len(fieldErrs))
			for i, fe := range fieldErrs {
				details[i] = FieldErrorDTO{Field: fe.Namespace(), Rule: fe.Tag(), Param: fe.Param()}
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Request validation failed",
				Code:    "invalid_request",
				Details: details,
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Request validation failed", err)
		return false
	}
	return true
}

// writeCalculationError maps a calculation failure to a response.
func (h *Handler) writeCalculationError(w http.ResponseWriter, err error) {
	if ve, ok := dataset.AsValidationErrors(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Dataset validation failed",
			Code:    "invalid_dataset",
			Details: ve,
		})
		return
	}
	if errors.Is(err, commission.ErrSettingsUnavailable) || errors.Is(err, commission.ErrInvalidSetting) {
		h.log.Error("calculation refused, settings unusable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "Settings unavailable",
			Code:    "settings_unavailable",
			Details: err.Error(),
		})
		return
	}
	h.log.Error("calculation failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Calculation failed", err)
}

// statusFor maps store and domain errors to an HTTP status.
func statusFor(err error) int {
	switch {
	case commission.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, commission.ErrSettingsUnavailable):
		return http.StatusServiceUnavailable
	case commission.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
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
