package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/income-bracket-predictor/internal/config"
	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
	"github.com/kirillkom/income-bracket-predictor/internal/core/ports"
	"github.com/kirillkom/income-bracket-predictor/internal/observability/metrics"
)

const (
	serviceName     = "api"
	maxJSONBody     = 64 << 10
	maxWorkbookBody = 10 << 20
)

var errRequestTooLarge = errors.New("request body too large")

type Router struct {
	cfg       config.Config
	predictor ports.IncomePredictor
	batch     ports.BatchPredictor
	history   ports.PredictionReader
	catalog   domain.Catalog

	encodedColumns []domain.Column
	metrics        *metrics.HTTPServerMetrics
	breakerState   func() string
}

type RouterOption func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) { rt.metrics = m }
}

// WithBreakerState exposes the classifier breaker on /readyz.
func WithBreakerState(state func() string) RouterOption {
	return func(rt *Router) { rt.breakerState = state }
}

func WithEncodedColumns(cols []domain.Column) RouterOption {
	return func(rt *Router) { rt.encodedColumns = cols }
}

func NewRouter(
	cfg config.Config,
	predictor ports.IncomePredictor,
	batch ports.BatchPredictor,
	history ports.PredictionReader,
	catalog domain.Catalog,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		cfg:       cfg,
		predictor: predictor,
		batch:     batch,
		history:   history,
		catalog:   catalog,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/readyz", rt.readyz)
	mux.HandleFunc("/openapi.yaml", rt.openAPI)
	mux.HandleFunc("/v1/schema", rt.schema)
	mux.HandleFunc("/v1/records", rt.assembleRecord)
	mux.HandleFunc("/v1/records/encode", rt.encodeRecord)
	mux.HandleFunc("/v1/predictions", rt.predict)
	mux.HandleFunc("/v1/predictions/batch", rt.predictBatch)
	mux.HandleFunc("/v1/predictions/", rt.getPrediction)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var h http.Handler = mux
	h = backpressureMiddleware(h, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
	h = rateLimitMiddleware(h, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.onRateLimited)
	if rt.metrics != nil {
		h = rt.metrics.Middleware(serviceName, h)
	}
	h = accessLogMiddleware(h)
	h = requestIDMiddleware(h)
	return recoveryMiddleware(h)
}

func (rt *Router) onRateLimited(path string) {
	if rt.metrics != nil {
		rt.metrics.RecordRateLimited(serviceName, path)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) readyz(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]string{
		"status":        "ready",
		"model_version": rt.predictor.ModelVersion(),
	}
	if rt.breakerState != nil {
		resp["breaker"] = rt.breakerState()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) openAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

type schemaResponse struct {
	Columns        []domain.Column                   `json:"columns"`
	Options        map[domain.Column][]string        `json:"options"`
	Ranges         map[domain.Column]domain.IntRange `json:"ranges"`
	Defaults       domain.Defaults                   `json:"defaults"`
	EducationNum   map[string]int                    `json:"education_num"`
	EncodedColumns []domain.Column                   `json:"encoded_columns,omitempty"`
}

func (rt *Router) schema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{
		Columns:        domain.Schema(),
		Options:        rt.catalog.Options,
		Ranges:         rt.catalog.Ranges,
		Defaults:       rt.catalog.Defaults,
		EducationNum:   rt.catalog.EducationNum,
		EncodedColumns: rt.encodedColumns,
	})
}

func (rt *Router) assembleRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	in, err := decodeInputs(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := rt.predictor.Assemble(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Record{"record": rec})
}

func (rt *Router) encodeRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	in, err := decodeInputs(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := rt.predictor.Assemble(in)
	if err != nil {
		writeError(w, err)
		return
	}
	encoded, err := rt.predictor.Encode(rec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Record{"record": rec, "encoded": encoded})
}

func (rt *Router) predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	in, err := decodeInputs(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	prediction, err := rt.predictor.Run(r.Context(), in)
	if rt.metrics != nil {
		var label domain.Label
		var cached bool
		if prediction != nil {
			label, cached = prediction.Label, prediction.Cached
		}
		rt.metrics.RecordPrediction(serviceName, "http", label, cached, time.Since(start), err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}

func (rt *Router) predictBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWorkbookBody)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, fmt.Errorf("workbook exceeds %d bytes: %w", maxWorkbookBody, errRequestTooLarge))
			return
		}
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "read upload", errors.New("multipart field 'file' is required")))
		return
	}
	defer file.Close()

	result, err := rt.batch.PredictWorkbook(r.Context(), file)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordBatch(serviceName, result.Succeeded, result.Failed)
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) getPrediction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/predictions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "get prediction", errors.New("prediction id is required")))
		return
	}

	prediction, err := rt.history.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}

func decodeInputs(w http.ResponseWriter, r *http.Request) (domain.UserInputs, error) {
	var in domain.UserInputs
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.UserInputs{}, errRequestTooLarge
		}
		return domain.UserInputs{}, domain.WrapError(domain.ErrInvalidInput, "decode request", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.UserInputs{}, domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("request body must hold a single JSON object"))
	}
	return in, nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
