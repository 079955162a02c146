package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Oracle query outcomes
const (
	OracleOpinion   = "opinion"
	OracleNoOpinion = "no_opinion"
	OracleError     = "error"
	OracleTimeout   = "timeout"
)

// Metrics groups the service's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	puzzlesTotal      *prometheus.CounterVec
	oracleQueries     *prometheus.CounterVec
	oracleDuration    prometheus.Histogram
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	submissionsTotal  *prometheus.CounterVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		puzzlesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "puzzles_generated_total",
			Help: "Puzzles generated by outcome.",
		}, []string{"outcome"}),
		oracleQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_queries_total",
			Help: "Evaluation oracle queries by outcome.",
		}, []string{"outcome"}),
		oracleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "oracle_query_duration_seconds",
			Help:    "Histogram of evaluation oracle query durations.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 5, 10},
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits by cache.",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses by cache.",
		}, []string{"cache"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Puzzle submissions by correctness.",
		}, []string{"correct"}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.puzzlesTotal,
		m.oracleQueries,
		m.oracleDuration,
		m.cacheHits,
		m.cacheMisses,
		m.submissionsTotal,
	)

	return m
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// PuzzleGenerated counts a generation attempt by outcome ("generated", "no_data", "error")
func (m *Metrics) PuzzleGenerated(outcome string) {
	if m == nil {
		return
	}
	m.puzzlesTotal.WithLabelValues(outcome).Inc()
}

// OracleQuery records one oracle call
func (m *Metrics) OracleQuery(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.oracleQueries.WithLabelValues(outcome).Inc()
	m.oracleDuration.Observe(d.Seconds())
}

// CacheHit implements the cache observer
func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(cache).Inc()
}

// CacheMiss implements the cache observer
func (m *Metrics) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// Submission counts a verdict
func (m *Metrics) Submission(correct bool) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Hijack lets WebSocket upgrades pass through the recorder
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware records request counts and latency by mux route template
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
