package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsCollector struct {
	registry            *prometheus.Registry
	runsCompleted       prometheus.Counter
	runsFailed          *prometheus.CounterVec
	runDuration         prometheus.Histogram
	personaAssignments  *prometheus.CounterVec
	recommendationCount prometheus.Histogram
	guardrailRejections *prometheus.CounterVec
	dataQualityFlags    prometheus.Counter
	mu                  sync.RWMutex
	logger              *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	collector := &MetricsCollector{
		registry: registry,
		runsCompleted: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "pipeline_runs_completed_total",
			Help: "Total number of completed per-user pipeline runs",
		}),
		runsFailed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_runs_failed_total",
			Help: "Total number of failed pipeline runs by reason code",
		}, []string{"reason"}),
		runDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Time taken to run the full per-user pipeline",
			Buckets: prometheus.DefBuckets,
		}),
		personaAssignments: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "persona_assignments_total",
			Help: "Persona assignments by persona and window",
		}, []string{"persona", "window"}),
		recommendationCount: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendations_per_run",
			Help:    "Number of recommendations surfaced per run",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8},
		}),
		guardrailRejections: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "guardrail_rejections_total",
			Help: "Catalog items rejected by guardrails, by reason",
		}, []string{"reason"}),
		dataQualityFlags: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "data_quality_flags_total",
			Help: "Data-quality conditions resolved to fallback values",
		}),
		logger: logger,
	}

	return collector
}

func (m *MetricsCollector) RecordRun(duration time.Duration, recommendations int, err error, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.runsFailed.WithLabelValues(reason).Inc()
	} else {
		m.runsCompleted.Inc()
		m.recommendationCount.Observe(float64(recommendations))
	}
	m.runDuration.Observe(duration.Seconds())
}

func (m *MetricsCollector) RecordPersona(persona, window string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.personaAssignments.WithLabelValues(persona, window).Inc()
}

func (m *MetricsCollector) RecordGuardrailRejection(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guardrailRejections.WithLabelValues(reason).Inc()
}

func (m *MetricsCollector) RecordDataQualityFlags(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataQualityFlags.Add(float64(count))
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	m.logger.Info("Metrics collector shutdown complete")
	return nil
}
