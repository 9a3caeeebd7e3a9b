package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/documents/abc":              "/v1/documents/{document_id}",
		"/v1/documents/abc/pages":        "/v1/documents/{document_id}/pages",
		"/v1/documents/abc/translations": "/v1/documents/{document_id}/translations",
		"/v1/documents/":                 "/v1/documents/",
		"/v1/documents":                  "/v1/documents",
		"/translate":                     "/translate",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareRecordsNormalizedPath(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1/pages", nil))

	body := scrape(t, m.Handler())
	want := `ctxr_http_requests_total{method="GET",path="/v1/documents/{document_id}/pages",service="api",status="404"} 1`
	if !strings.Contains(body, want) {
		t.Fatalf("expected %s in:\n%s", want, body)
	}
}

func TestTranslationAndProviderMetrics(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.RecordTranslation("api", "/translate", "gemini-2.0-flash", "ok", true, 20*time.Millisecond)
	m.RecordContextWindow("api", "/v1/context", false, 12)
	m.ObserveProviderCall("groq", "qwen-qwq-32b", "malformed", time.Second)
	m.SetCircuitBreakerState("groq_chat", "open")

	body := scrape(t, m.Handler())
	for _, want := range []string{
		`ctxr_translation_requests_total{cached="true",endpoint="/translate",model="gemini-2.0-flash",outcome="ok",service="api"} 1`,
		`ctxr_context_fallback_total{endpoint="/v1/context",service="api"} 1`,
		`ctxr_llm_provider_calls_total{model="qwen-qwq-32b",outcome="malformed",provider="groq",service="api"} 1`,
		`ctxr_resilience_circuit_breaker_state{operation="groq_chat",service="api"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in:\n%s", want, body)
		}
	}
}

func TestWorkerMetrics(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartDocument()
	m.FinishDocument("worker", time.Second, errors.New("boom"))
	m.ObserveExtractedWords("worker", "epub", 1200)
	m.ObserveQueueLag("worker", -time.Second)

	body := scrape(t, m.Handler())
	if !strings.Contains(body, `ctxr_worker_document_process_total{service="worker",status="error"} 1`) {
		t.Fatalf("missing process counter:\n%s", body)
	}
	if !strings.Contains(body, `ctxr_worker_extracted_words_count{format="epub",service="worker"} 1`) {
		t.Fatalf("missing extracted words:\n%s", body)
	}
	if !strings.Contains(body, `ctxr_worker_document_process_in_flight{service="worker"} 0`) {
		t.Fatalf("in-flight gauge should be back to zero:\n%s", body)
	}
}
