// Package metrics exposes the proxy's counters in prometheus format.
//
// All methods are safe on a nil *Metrics so callers that run without a
// metrics endpoint do not need to guard each call.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pedalproxy/internal/pedal"
)

const namespace = "pedalproxy"

// Teardown stages.
const (
	StageListen = "listen"
	StageAccept = "accept"
	StageDevice = "device"
	StageSend   = "send"
)

type Metrics struct {
	registry *prometheus.Registry

	DeviceEvents  *prometheus.CounterVec
	RecordsSent   prometheus.Counter
	Sessions      prometheus.Counter
	Teardowns     *prometheus.CounterVec
	PedalPosition *prometheus.GaugeVec
	SessionActive prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		DeviceEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "device",
				Name:      "events_total",
				Help:      "Joystick events read from the device",
			},
			[]string{"kind"},
		),
		RecordsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_sent_total",
			Help:      "Pedal state records written to clients",
		}),
		Sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Client connections accepted",
		}),
		Teardowns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "teardowns_total",
				Help:      "Listener loop teardowns by the stage that failed",
			},
			[]string{"stage"},
		),
		PedalPosition: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pedal_position",
				Help:      "Last known pedal depression",
			},
			[]string{"pedal"},
		),
		SessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      "1 while a client is connected",
		}),
	}
	m.registry.MustRegister(
		m.DeviceEvents,
		m.RecordsSent,
		m.Sessions,
		m.Teardowns,
		m.PedalPosition,
		m.SessionActive,
	)
	return m
}

func (m *Metrics) ObserveEvent(kind string) {
	if m == nil {
		return
	}
	m.DeviceEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveState(s pedal.State) {
	if m == nil {
		return
	}
	m.PedalPosition.WithLabelValues("primary").Set(float64(s.Primary))
	m.PedalPosition.WithLabelValues("secondary").Set(float64(s.Secondary))
}

func (m *Metrics) RecordSent() {
	if m == nil {
		return
	}
	m.RecordsSent.Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.Sessions.Inc()
	m.SessionActive.Set(1)
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.SessionActive.Set(0)
}

func (m *Metrics) Teardown(stage string) {
	if m == nil {
		return
	}
	m.Teardowns.WithLabelValues(stage).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
