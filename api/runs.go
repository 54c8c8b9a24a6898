package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/warp/commission-engine/calculation"
	"github.com/warp/commission-engine/dataset"
	"github.com/warp/commission-engine/store/sqlite"
	"go.uber.org/zap"
)

// =============================================================================
// RUN ENDPOINTS
// =============================================================================

// uploadField binds a multipart field to a sheet.
type uploadField struct {
	field  string
	schema dataset.Schema
}

var uploadFields = []uploadField{
	{"sales", dataset.SalesSchema},
	{"employees", dataset.EmployeeModelsSchema},
	{"targets", dataset.TargetsSchema},
	{"payments", dataset.PaymentsSchema},
}

// workbookField carries a whole .xlsx export instead of per-sheet CSV files.
const workbookField = "workbook"

// CreateRun calculates from an uploaded .xlsx workbook or from CSV sheets
// and stores the run. Only the sales sheet is required. Without a targets
// sheet the stored monthly targets are used.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart upload", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	ds, names, err := readUpload(r)
	if err != nil {
		if _, ok := dataset.AsValidationErrors(err); !ok {
			writeError(w, http.StatusBadRequest, "Cannot read uploaded sheets", err)
			return
		}
		h.writeCalculationError(w, err)
		return
	}

	out, err := h.Calc.Calculate(r.Context(), calculation.Request{
		Dataset:  ds,
		Filename: strings.Join(names, ", "),
		Persist:  true,
	})
	if err != nil {
		h.writeCalculationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCalculationResponse(out))
}

// readUpload reads the workbook field if present, otherwise the CSV fields.
// It returns the uploaded file names.
func readUpload(r *http.Request) (*dataset.Dataset, []string, error) {
	wb, hdr, err := r.FormFile(workbookField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return nil, nil, err
	default:
		defer wb.Close()
		if !dataset.IsWorkbook(hdr.Filename) {
			return nil, nil, fmt.Errorf("%s: %w", hdr.Filename, dataset.ErrInvalidWorkbook)
		}
		for _, uf := range uploadFields {
			if _, ok := r.MultipartForm.File[uf.field]; ok {
				return nil, nil, fmt.Errorf("send either %q or CSV sheets, not both", workbookField)
			}
		}
		ds, err := dataset.ReadWorkbook(wb)
		return ds, []string{hdr.Filename}, err
	}

	var files dataset.Files
	readers := map[string]*io.Reader{
		"sales":     &files.Sales,
		"employees": &files.Employees,
		"targets":   &files.Targets,
		"payments":  &files.Payments,
	}
	var names []string
	for _, uf := range uploadFields {
		f, hdr, err := r.FormFile(uf.field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("upload field %s: %w", uf.field, err)
		}
		defer f.Close()
		*readers[uf.field] = f
		names = append(names, hdr.Filename)
	}

	ds, err := dataset.Read(files)
	return ds, names, err
}

// Calculate runs a calculation from a JSON body. Nothing is stored unless
// the body sets "save".
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	ds, err := req.Dataset()
	if err != nil {
		h.writeCalculationError(w, err)
		return
	}

	out, err := h.Calc.Calculate(r.Context(), calculation.Request{
		Dataset:  ds,
		Filename: "api",
		Persist:  req.Save,
	})
	if err != nil {
		h.writeCalculationError(w, err)
		return
	}

	status := http.StatusOK
	if req.Save {
		status = http.StatusCreated
	}
	writeJSON(w, status, toCalculationResponse(out))
}

// ListRuns returns stored runs, newest first. ?limit= bounds the list.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
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

// GetRun returns one stored run.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			writeError(w, http.StatusNotFound, "Run not found", nil)
			return
		}
		h.log.Error("get run failed", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return
	}

	dto := RunDetailDTO{
		RunDTO:          toRunDTO(*run),
		People:          run.People,
		DetailedResults: run.DetailedResults,
		Targets:         run.Targets,
	}
	if dto.People == nil {
		dto.People = []sqlite.PersonResult{}
	}
	writeJSON(w, http.StatusOK, dto)
}
