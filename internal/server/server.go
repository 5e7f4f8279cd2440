package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/cashflow-evaluator/internal/config"
	"github.com/iwvelando/cashflow-evaluator/internal/dataset"
	"github.com/iwvelando/cashflow-evaluator/internal/evaluation"
	"github.com/iwvelando/cashflow-evaluator/pkg/cashflow"
	"github.com/iwvelando/cashflow-evaluator/pkg/chart"
	"github.com/iwvelando/cashflow-evaluator/pkg/constants"
	"github.com/iwvelando/cashflow-evaluator/pkg/output"
	"github.com/iwvelando/cashflow-evaluator/pkg/validation"
	"go.uber.org/zap"
)

// RequestIDHeader carries the identifier assigned to each request.
const RequestIDHeader = "X-Request-ID"

type contextKey struct{}

type handler struct {
	logger        *zap.Logger
	engine        *evaluation.Engine
	conf          *config.Configuration
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the evaluation API.
func NewHandler(logger *zap.Logger, cfg *Config, version string) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		var err error
		if cfg, err = LoadConfig(""); err != nil {
			return nil, err
		}
	}

	maxUploadSize := cfg.UploadSizeBytes()
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	conf := cfg.EvaluationConfiguration()
	engine, err := evaluation.NewEngineFromConfig(logger, conf)
	if err != nil {
		return nil, err
	}

	h := &handler{
		logger:        logger,
		engine:        engine,
		conf:          conf,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
	}

	mux := http.NewServeMux()

	// Evaluation of an uploaded workbook or CSV file
	mux.HandleFunc("/api/evaluate", h.handleEvaluate)

	// Evaluation of cash flows posted as JSON
	mux.HandleFunc("/api/evaluate/json", h.handleEvaluateJSON)

	// NPV against discount rate
	mux.HandleFunc("/api/profile", h.handleProfile)

	// PNG charts
	mux.HandleFunc("/api/chart", h.handleChart)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return h.withRequestID(mux), nil
}

type evaluateResponse struct {
	Projects []output.Project `json:"projects"`
	CSV      string           `json:"csv"`
	Warnings []string         `json:"warnings,omitempty"`
	Duration string           `json:"duration"`
}

type projectPayload struct {
	Name         string    `json:"name"`
	CashFlows    []float64 `json:"cashFlows"`
	DiscountRate *float64  `json:"discountRate,omitempty"`
}

type evaluatePayload struct {
	Name         string           `json:"name"`
	CashFlows    []float64        `json:"cashFlows"`
	DiscountRate *float64         `json:"discountRate"`
	Projects     []projectPayload `json:"projects"`
}

type profilePayload struct {
	CashFlows []float64 `json:"cashFlows"`
	MinRate   *float64  `json:"minRate"`
	MaxRate   *float64  `json:"maxRate"`
	Step      *float64  `json:"step"`
}

type profileResponse struct {
	Points []cashflow.ProfilePoint `json:"points"`
	IRR    *float64                `json:"irr,omitempty"`
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logger := h.logger.With(zap.String("requestID", requestID))
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), contextKey{}, logger)))

		logger.Info("request handled",
			zap.String("op", "server.withRequestID"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) loggerFor(r *http.Request) *zap.Logger {
	if logger, ok := r.Context().Value(contextKey{}).(*zap.Logger); ok {
		return logger
	}
	return h.logger
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluate"
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, http.MethodPost)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "missing dataset file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.loggerFor(r).Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	format, err := dataset.FormatFromName(header.Filename)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	rate, err := h.formRate(r)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	opts := dataset.Options{
		Sheet:          firstNonEmpty(r.FormValue("sheet"), h.conf.Dataset.Sheet),
		ProjectColumn:  h.conf.Dataset.ProjectColumn,
		CashFlowColumn: h.conf.Dataset.CashFlowColumn,
		PeriodColumn:   firstNonEmpty(r.FormValue("periodColumn"), h.conf.Dataset.PeriodColumn),
	}
	ds, err := dataset.NewLoader(h.loggerFor(r)).Read(file, format, opts)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("%s: %v", header.Filename, err), op)
		return
	}

	inputs, err := evaluation.Select(evaluation.InputsFromDataset(ds, rate), strings.TrimSpace(r.FormValue("project")))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("%v (available: %s)", err, strings.Join(ds.Names(), ", ")), op)
		return
	}

	h.evaluate(w, r, inputs, start, op)
}

func (h *handler) handleEvaluateJSON(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluateJSON"
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, http.MethodPost)
		return
	}

	start := time.Now()
	var payload evaluatePayload
	if !h.decodeJSON(w, r, &payload, op) {
		return
	}

	inputs, err := h.inputsFromPayload(payload)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.evaluate(w, r, inputs, start, op)
}

func (h *handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProfile"
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var payload profilePayload
	if !h.decodeJSON(w, r, &payload, op) {
		return
	}

	profile := h.conf.Evaluation.Profile
	rates, err := cashflow.RateRange(
		valueOr(payload.MinRate, profile.MinRate),
		valueOr(payload.MaxRate, profile.MaxRate),
		valueOr(payload.Step, profile.Step),
	)
	if err != nil {
		h.respondError(w, r, statusFor(err), err.Error(), op)
		return
	}

	points, err := cashflow.NPVProfile(payload.CashFlows, rates)
	if err != nil {
		h.respondError(w, r, statusFor(err), err.Error(), op)
		return
	}

	response := profileResponse{Points: points}
	if irr, ok, err := cashflow.IRR(payload.CashFlows); err == nil && ok {
		response.IRR = &irr
	}
	h.writeJSON(w, r, http.StatusOK, response)
}

func (h *handler) handleChart(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleChart"
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, http.MethodPost)
		return
	}

	kind, err := chart.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	var payload evaluatePayload
	if !h.decodeJSON(w, r, &payload, op) {
		return
	}
	if len(payload.Projects) > 0 {
		h.respondError(w, r, http.StatusBadRequest, "charts take a single cashFlows series", op)
		return
	}

	inputs, err := h.inputsFromPayload(payload)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}
	result, err := h.engine.Evaluate(inputs[0])
	if err != nil {
		h.respondError(w, r, statusFor(err), err.Error(), op)
		return
	}

	p, err := chart.Render(kind, result)
	if err != nil {
		h.respondError(w, r, statusFor(err), err.Error(), op)
		return
	}
	var buf bytes.Buffer
	if err := chart.WritePNG(&buf, p); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.loggerFor(r).Error("failed to write chart response", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, http.MethodGet)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) evaluate(w http.ResponseWriter, r *http.Request, inputs []evaluation.Input, start time.Time, op string) {
	results, err := h.engine.EvaluateAll(inputs)
	if err != nil {
		h.respondError(w, r, statusFor(err), err.Error(), op)
		return
	}

	elapsed := time.Since(start)
	response := evaluateResponse{
		Projects: output.Projects(results),
		CSV:      output.CsvString(results),
		Warnings: inputWarnings(inputs),
		Duration: elapsed.String(),
	}

	h.loggerFor(r).Info("projects evaluated",
		zap.String("op", op),
		zap.Int("projects", len(results)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, r, http.StatusOK, response)
}

func (h *handler) inputsFromPayload(payload evaluatePayload) ([]evaluation.Input, error) {
	defaultRate := valueOr(payload.DiscountRate, h.conf.Evaluation.DiscountRate)

	if len(payload.Projects) == 0 {
		if payload.CashFlows == nil {
			return nil, fmt.Errorf("request must include cashFlows or projects")
		}
		name := strings.TrimSpace(payload.Name)
		if name == "" {
			name = "Project"
		}
		return []evaluation.Input{{
			Name:         name,
			CashFlows:    payload.CashFlows,
			DiscountRate: defaultRate,
		}}, nil
	}

	if payload.CashFlows != nil {
		return nil, fmt.Errorf("request must include either cashFlows or projects, not both")
	}
	inputs := make([]evaluation.Input, 0, len(payload.Projects))
	for i, project := range payload.Projects {
		name := strings.TrimSpace(project.Name)
		if name == "" {
			name = fmt.Sprintf("Project %d", i+1)
		}
		inputs = append(inputs, evaluation.Input{
			Name:         name,
			CashFlows:    project.CashFlows,
			DiscountRate: valueOr(project.DiscountRate, defaultRate),
		})
	}
	return inputs, nil
}

func (h *handler) formRate(r *http.Request) (float64, error) {
	raw := strings.TrimSpace(r.FormValue("rate"))
	if raw == "" {
		return h.conf.Evaluation.DiscountRate, nil
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q: %w", raw, err)
	}
	return rate, nil
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func inputWarnings(inputs []evaluation.Input) []string {
	var warnings []string
	for _, input := range inputs {
		if warning := validation.DiscountRateWarning(fmt.Sprintf("Project '%s'", input.Name), input.DiscountRate); warning != "" {
			warnings = append(warnings, warning)
		}
		if len(input.CashFlows) > 0 && !cashflow.HasSignChange(input.CashFlows) {
			warnings = append(warnings, fmt.Sprintf("Project '%s' has no sign change; IRR will be undefined", input.Name))
		}
	}
	return warnings
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cashflow.ErrInvalidInput),
		errors.Is(err, dataset.ErrMissingColumn),
		errors.Is(err, dataset.ErrInvalidValue),
		errors.Is(err, dataset.ErrUnsupportedFormat),
		errors.Is(err, dataset.ErrProjectNotFound),
		errors.Is(err, dataset.ErrEmpty),
		errors.Is(err, chart.ErrNoData),
		errors.Is(err, chart.ErrUnknownKind):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *handler) methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	h.writeJSON(w, r, http.StatusMethodNotAllowed, map[string]string{"error": http.StatusText(http.StatusMethodNotAllowed)})
}

func (h *handler) respondError(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.loggerFor(r).Error("evaluation request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, r, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFor(r).Error("failed to write JSON response", zap.Error(err))
	}
}

func valueOr(value *float64, fallback float64) float64 {
	if value == nil {
		return fallback
	}
	return *value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
