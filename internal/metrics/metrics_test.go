package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.PuzzleGenerated("generated")
	m.OracleQuery(OracleOpinion, time.Millisecond)
	m.CacheHit("explorer")
	m.CacheMiss("explorer")
	m.Submission(true)

	called := false
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("nil middleware must still call the next handler")
	}
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	m := New()

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/v1/puzzle", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/puzzle", nil))
	m.OracleQuery(OracleTimeout, 2*time.Second)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`http_requests_total{route="/v1/puzzle",status="418"} 1`,
		`oracle_queries_total{outcome="timeout"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
