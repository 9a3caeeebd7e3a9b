package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/context-reader/internal/config"
	"github.com/kirillkom/context-reader/internal/core/ports"
	"github.com/kirillkom/context-reader/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	ingest       ports.DocumentIngestor
	documents    ports.DocumentReader
	translations ports.TranslationService

	metrics   *metrics.HTTPServerMetrics
	validator *requestValidator

	apiKey           string
	maxUploadBytes   int64
	rateLimitRPS     float64
	rateLimitBurst   int
	maxInFlight      int
	backpressureWait time.Duration
	corsOrigins      []string
}

type RouterOption func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) {
		rt.metrics = m
	}
}

func NewRouter(
	cfg config.Config,
	ingest ports.DocumentIngestor,
	documents ports.DocumentReader,
	translations ports.TranslationService,
	opts ...RouterOption,
) *Router {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	wait := time.Duration(cfg.APIBackpressureWaitMS) * time.Millisecond
	if wait <= 0 {
		wait = 50 * time.Millisecond
	}

	rt := &Router{
		ingest:           ingest,
		documents:        documents,
		translations:     translations,
		validator:        mustRequestValidator(),
		apiKey:           strings.TrimSpace(cfg.APIKey),
		maxUploadBytes:   maxUpload,
		rateLimitRPS:     cfg.APIRateLimitRPS,
		rateLimitBurst:   cfg.APIRateLimitBurst,
		maxInFlight:      cfg.APIMaxInFlight,
		backpressureWait: wait,
		corsOrigins:      cfg.CORSAllowedOrigins,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("GET /v1/models", rt.listModels)
	mux.HandleFunc("POST /v1/documents", rt.uploadDocument)
	mux.HandleFunc("GET /v1/documents/{document_id}", rt.getDocument)
	mux.HandleFunc("GET /v1/documents/{document_id}/pages", rt.getDocumentPage)
	mux.HandleFunc("POST /v1/documents/{document_id}/context", rt.documentContext)
	mux.HandleFunc("POST /v1/documents/{document_id}/translations", rt.translateDocumentSelection)
	mux.HandleFunc("GET /v1/documents/{document_id}/translations", rt.listTranslations)
	mux.HandleFunc("GET /v1/documents/{document_id}/vocabulary", rt.listVocabulary)
	mux.HandleFunc("POST /v1/context", rt.extractContext)
	mux.HandleFunc("POST /translate", rt.translate)

	var handler http.Handler = rt.validator.middleware(mux)
	handler = authMiddleware(handler, rt.apiKey)
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.backpressureWait, rt.onBackpressureReject)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst, rt.onRateLimitReject)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = corsMiddleware(handler, rt.corsOrigins)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) onRateLimitReject() {
	if rt.metrics != nil {
		rt.metrics.RecordRateLimited(serviceName)
	}
}

func (rt *Router) onBackpressureReject() {
	if rt.metrics != nil {
		rt.metrics.RecordBackpressureRejected(serviceName)
	}
}

func decodeJSONBody(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return errors.New("invalid json")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
