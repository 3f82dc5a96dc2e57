// Package metrics exposes prometheus collectors for sessions and concept extraction.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	extractRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typefast_extract_requests_total",
			Help: "Concept extraction requests by outcome.",
		},
		[]string{"outcome"},
	)

	conceptsExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "typefast_concepts_extracted_total",
			Help: "Concepts returned by successful extractions.",
		},
	)

	llmCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "typefast_llm_calls_latency_ms",
			Help:    "LLM call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
		[]string{"model", "success"},
	)

	sessionsFinished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "typefast_sessions_finished_total",
			Help: "Typing sessions finalized.",
		},
	)

	sessionWPM = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "typefast_session_wpm",
			Help:    "Words per minute of finalized sessions.",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 80, 100, 120, 150},
		},
	)

	sessionAccuracy = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "typefast_session_accuracy_percent",
			Help:    "Accuracy of finalized sessions.",
			Buckets: []float64{50, 60, 70, 80, 85, 90, 95, 98, 100},
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			extractRequests, conceptsExtracted, llmCallsLatencyMs,
			sessionsFinished, sessionWPM, sessionAccuracy,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// IncExtract counts one extraction request with the given outcome.
func IncExtract(outcome string) {
	extractRequests.WithLabelValues(norm(outcome)).Inc()
}

// AddConcepts counts extracted concepts.
func AddConcepts(n int) {
	conceptsExtracted.Add(float64(n))
}

// ObserveLLMCall records the latency of one LLM call.
func ObserveLLMCall(model string, latencyMs int64, success bool) {
	llmCallsLatencyMs.WithLabelValues(norm(model), strconv.FormatBool(success)).Observe(float64(latencyMs))
}

// ObserveSession records a finalized typing session.
func ObserveSession(wpm, accuracy int) {
	sessionsFinished.Inc()
	sessionWPM.Observe(float64(wpm))
	sessionAccuracy.Observe(float64(accuracy))
}
