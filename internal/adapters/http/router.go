package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
	"github.com/kirillkom/document-classifier/internal/observability/metrics"
)

const (
	defaultMaxUploadBytes = 32 << 20
	multipartMemory       = 8 << 20
	uploadField           = "file"
	readinessTimeout      = 2 * time.Second
)

type Options struct {
	Service         string
	DefaultStrategy domain.Strategy
	MaxUploadBytes  int64

	RateLimitRPS   float64
	RateLimitBurst int

	MaxInFlight      int
	BackpressureWait time.Duration

	// ReadinessChecks are run by /readyz, keyed by dependency name.
	ReadinessChecks map[string]func(context.Context) error

	Metrics *metrics.HTTPServerMetrics
	Logger  *slog.Logger
}

type Router struct {
	uploads ports.UploadClassifier
	jobs    ports.JobScheduler
	history ports.ClassificationHistory
	opts    Options
	logger  *slog.Logger
}

// NewRouter builds the classification HTTP surface. jobs and history may be
// nil when NATS or Postgres are not configured; their routes then answer 503.
func NewRouter(
	uploads ports.UploadClassifier,
	jobs ports.JobScheduler,
	history ports.ClassificationHistory,
	opts Options,
) *Router {
	if opts.Service == "" {
		opts.Service = "api"
	}
	if opts.DefaultStrategy == "" {
		opts.DefaultStrategy = domain.StrategyZeroShot
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		uploads: uploads,
		jobs:    jobs,
		history: history,
		opts:    opts,
		logger:  logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /readyz", rt.readyz)
	mux.HandleFunc("POST /classify_file", rt.classifyFile)
	mux.HandleFunc("POST /v1/classifications", rt.classifyFiles)
	mux.HandleFunc("GET /v1/classifications/{id}", rt.getClassification)
	mux.HandleFunc("POST /v1/jobs", rt.enqueueJob)
	if rt.opts.Metrics != nil {
		mux.Handle("GET /metrics", rt.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(rt.opts.Service, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) readyz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(rt.opts.ReadinessChecks))
	for name, check := range rt.opts.ReadinessChecks {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			rt.logger.Warn("readiness_check_failed", "check", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}

// classifyFile accepts exactly one multipart "file" and answers {"file_class": id}.
func (rt *Router) classifyFile(w http.ResponseWriter, r *http.Request) {
	headers, ok := rt.parseUploads(w, r)
	if !ok {
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	if len(headers) > 1 {
		writeError(w, http.StatusBadRequest, "exactly one 'file' part is allowed; use /v1/classifications for batches")
		return
	}
	header := headers[0]
	if strings.TrimSpace(header.Filename) == "" {
		writeError(w, http.StatusBadRequest, "no selected file")
		return
	}
	file, err := header.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read uploaded file")
		return
	}
	defer file.Close()

	result, err := rt.uploads.ClassifyUpload(r.Context(), domain.Upload{Filename: header.Filename, Body: file})
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordUpload(rt.opts.Service, "/classify_file", 1)
	}

	w.Header().Set(classificationIDHeader, result.RequestID)
	writeJSON(w, http.StatusOK, result.Output)
}

func (rt *Router) classifyFiles(w http.ResponseWriter, r *http.Request) {
	headers, ok := rt.parseUploads(w, r)
	if !ok {
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	uploads := make([]domain.Upload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "cannot read uploaded file "+header.Filename)
			return
		}
		defer file.Close()
		uploads = append(uploads, domain.Upload{Filename: header.Filename, Body: file})
	}

	result, err := rt.uploads.ClassifyUploads(r.Context(), uploads)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordUpload(rt.opts.Service, "/v1/classifications", len(uploads))
	}

	writeJSON(w, http.StatusOK, classificationResponse{
		RequestID:   result.RequestID,
		Strategy:    result.Strategy,
		FileClasses: result.Output.BatchOrEmpty(),
	})
}

func (rt *Router) getClassification(w http.ResponseWriter, r *http.Request) {
	if rt.history == nil {
		writeError(w, http.StatusServiceUnavailable, "classification history is not configured")
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "classification id is required")
		return
	}

	records, err := rt.history.ListByRequestID(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	fileClasses := make(map[string]domain.DocumentType, len(records))
	var strategy domain.Strategy
	for _, record := range records {
		fileClasses[record.Path] = record.DocumentType
		strategy = record.Strategy
	}
	writeJSON(w, http.StatusOK, classificationResponse{
		RequestID:   id,
		Strategy:    strategy,
		FileClasses: fileClasses,
		Records:     records,
	})
}

func (rt *Router) enqueueJob(w http.ResponseWriter, r *http.Request) {
	if rt.jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "job queue is not configured")
		return
	}

	var req struct {
		Directory string `json:"directory"`
		Strategy  string `json:"strategy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	strategy := rt.opts.DefaultStrategy
	if strings.TrimSpace(req.Strategy) != "" {
		parsed, err := domain.ParseStrategy(req.Strategy)
		if err != nil {
			rt.writeDomainError(w, r, err)
			return
		}
		strategy = parsed
	}

	job, err := rt.jobs.Enqueue(r.Context(), req.Directory, strategy)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// parseUploads reads the multipart body and returns the "file" parts. It
// writes the error response itself when ok is false.
func (rt *Router) parseUploads(w http.ResponseWriter, r *http.Request) ([]*multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return nil, false
	}
	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		_ = r.MultipartForm.RemoveAll()
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return nil, false
	}
	return headers, true
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

type classificationResponse struct {
	RequestID   string                         `json:"request_id"`
	Strategy    domain.Strategy                `json:"strategy,omitempty"`
	FileClasses map[string]domain.DocumentType `json:"file_classes"`
	Records     []domain.ClassificationRecord  `json:"records,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
