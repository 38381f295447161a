package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/bibbank/vulntriage/internal/application/dto"
	"github.com/bibbank/vulntriage/internal/application/usecase"
	"github.com/bibbank/vulntriage/internal/domain/errs"
)

// maxBodyBytes caps the size of a predict request body.
const maxBodyBytes = 1 << 20

// apiPrefixes are mounted side by side so clients of the unversioned paths keep working.
var apiPrefixes = []string{"", "/v1"}

// TriageHandler serves the scoring and lookup endpoints over JSON.
type TriageHandler struct {
	scoreDescription *usecase.ScoreDescription
	scoreLatest      *usecase.ScoreLatest
	getRecord        *usecase.GetRecord
	getMeta          *usecase.GetMeta
	logger           *slog.Logger
	traceID          func() string
}

// NewTriageHandler creates a new REST handler.
func NewTriageHandler(
	scoreDescription *usecase.ScoreDescription,
	scoreLatest *usecase.ScoreLatest,
	getRecord *usecase.GetRecord,
	getMeta *usecase.GetMeta,
	logger *slog.Logger,
) *TriageHandler {
	return &TriageHandler{
		scoreDescription: scoreDescription,
		scoreLatest:      scoreLatest,
		getRecord:        getRecord,
		getMeta:          getMeta,
		logger:           logger,
		traceID:          newTraceID,
	}
}

// RootResponse is the body of GET /.
type RootResponse struct {
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// MetaResponse extends the model metadata with the threshold map older clients read.
type MetaResponse struct {
	dto.MetaResponse
	Thresholds map[string]string `json:"thresholds"`
}

// RecordListResponse is the body of GET /v1/records.
type RecordListResponse struct {
	Records []dto.ScoredRecordResponse `json:"records"`
	Count   int                        `json:"count"`
}

// ErrorResponse is the body of every non-2xx reply. TraceID is only set for
// server-side failures so they can be found in the logs.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// RegisterRoutes registers the triage endpoints on the provided ServeMux.
func (h *TriageHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Root)
	for _, p := range apiPrefixes {
		mux.HandleFunc("POST "+p+"/predict", h.Predict)
		mux.HandleFunc("GET "+p+"/predict/latest-cves", h.PredictLatest)
		mux.HandleFunc("GET "+p+"/meta", h.Meta)
		mux.HandleFunc("GET "+p+"/records/{id}", h.GetRecord)
		mux.HandleFunc("GET "+p+"/records", h.ListRecords)
	}
}

// Root describes the API.
func (h *TriageHandler) Root(w http.ResponseWriter, r *http.Request) {
	meta := h.getMeta.Execute()
	writeJSON(w, http.StatusOK, RootResponse{
		Message: "CVE Risk Prediction API",
		Status:  "running",
		Version: meta.Version,
		Endpoints: map[string]string{
			"predict":     "POST /v1/predict",
			"latest_cves": "GET /v1/predict/latest-cves",
			"meta":        "GET /v1/meta",
			"records":     "GET /v1/records",
			"record":      "GET /v1/records/{id}",
			"health":      "GET /health",
			"metrics":     "GET /metrics",
		},
	})
}

// Predict scores a single free-text description.
func (h *TriageHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req dto.ScoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeFailure(w, r, "Prediction failed", err)
		return
	}

	resp, err := h.scoreDescription.Execute(r.Context(), req.Description)
	if err != nil {
		h.writeFailure(w, r, "Prediction failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PredictLatest scores the records published over the last days_back days.
// The body is the list of predictions in feed order; records that could not
// be scored are left out and counted in the X-Failed-Records header.
// X-Fetched-Records carries the feed's item count before language filtering.
func (h *TriageHandler) PredictLatest(w http.ResponseWriter, r *http.Request) {
	daysBack, err := queryInt(r, "days_back", dto.DefaultDaysBack)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxResults, err := queryInt(r, "max_results", dto.DefaultMaxResults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.scoreLatest.Execute(r.Context(), dto.BatchRequest{
		DaysBack:   daysBack,
		MaxResults: maxResults,
	})
	if err != nil {
		h.writeFailure(w, r, "Failed to fetch CVEs from NVD", err)
		return
	}

	w.Header().Set("X-Failed-Records", strconv.Itoa(len(result.Failed)))
	w.Header().Set("X-Fetched-Records", strconv.Itoa(result.Fetched))
	predictions := result.Predictions
	if predictions == nil {
		predictions = []dto.RecordPrediction{}
	}
	writeJSON(w, http.StatusOK, predictions)
}

// Meta returns the model metadata.
func (h *TriageHandler) Meta(w http.ResponseWriter, r *http.Request) {
	meta := h.getMeta.Execute()
	thresholds := make(map[string]string, len(meta.Tiers))
	for _, t := range meta.Tiers {
		thresholds[strings.ToLower(t.Name)+"_risk"] = t.Threshold
	}
	writeJSON(w, http.StatusOK, MetaResponse{MetaResponse: meta, Thresholds: thresholds})
}

// GetRecord returns the latest stored score for one record.
func (h *TriageHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	resp, err := h.getRecord.Execute(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, r, "Record lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRecords returns the most recently scored records.
func (h *TriageHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.getRecord.List(r.Context(), limit)
	if err != nil {
		h.writeFailure(w, r, "Record listing failed", err)
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Records: records, Count: len(records)})
}

// writeFailure maps the error taxonomy onto HTTP status codes. Server-side
// failures carry a trace id that is also logged with the full error.
func (h *TriageHandler) writeFailure(w http.ResponseWriter, r *http.Request, prefix string, err error) {
	var failure *errs.ScoringFailure
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrUpstreamUnavailable):
		h.writeTraced(w, r, http.StatusBadGateway, prefix+": vulnerability feed unavailable", err)
	case errors.Is(err, context.DeadlineExceeded):
		h.writeTraced(w, r, http.StatusGatewayTimeout, prefix+": deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		// The client is gone; nobody reads the body.
		h.logger.InfoContext(r.Context(), "request canceled", "path", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
	case errors.As(err, &failure):
		h.writeTraced(w, r, http.StatusInternalServerError, prefix+": scoring failed at "+failure.Stage, err)
	default:
		h.writeTraced(w, r, http.StatusInternalServerError, prefix+": internal error", err)
	}
}

func (h *TriageHandler) writeTraced(w http.ResponseWriter, r *http.Request, code int, msg string, err error) {
	traceID := h.traceID()
	h.logger.ErrorContext(r.Context(), "request failed",
		"trace_id", traceID,
		"path", r.URL.Path,
		"status", code,
		"error", err,
	)
	writeJSON(w, code, ErrorResponse{Error: msg, TraceID: traceID})
}

func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(key + " must be an integer, got " + strconv.Quote(raw))
	}
	return v, nil
}

func newTraceID() string {
	return uuid.NewString()[:8]
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, ErrorResponse{Error: msg})
}
