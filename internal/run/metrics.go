package run

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type metrics struct {
	registry *prometheus.Registry

	sessionsStarted prometheus.Counter
	sessionsEnded   prometheus.Counter
	results         *prometheus.CounterVec
	engineErrors    prometheus.Counter
	deliveries      *prometheus.CounterVec
	active          prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "earshot_sessions_started_total",
			Help: "Start signals received from the engine.",
		}),
		sessionsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "earshot_sessions_ended_total",
			Help: "End signals received from the engine.",
		}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "earshot_results_total",
			Help: "Transcripts emitted by the session.",
		}, []string{"kind"}),
		engineErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "earshot_engine_errors_total",
			Help: "Errors reported by the engine.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "earshot_sink_deliveries_total",
			Help: "Transcript deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "earshot_session_active",
			Help: "1 while the engine is listening.",
		}),
	}
	m.registry.MustRegister(
		m.sessionsStarted,
		m.sessionsEnded,
		m.results,
		m.engineErrors,
		m.deliveries,
		m.active,
	)
	return m
}

func (m *metrics) observeDelivery(sink, outcome string) {
	m.deliveries.WithLabelValues(sink, outcome).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) serve(ctx context.Context, addr string, logger logrus.FieldLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.handler())
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	logger.Infof("metrics listening on http://%s/metrics", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warnf("metrics server: %v", err)
	}
}
