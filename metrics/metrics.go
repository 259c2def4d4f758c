// Package metrics exports decoder state to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sergev/wwvb/clock"
	"github.com/sergev/wwvb/decoder"
)

// Metrics holds all collectors for one receiver
type Metrics struct {
	samples     prometheus.Counter
	symbols     *prometheus.CounterVec // by symbol: 0, 1, M, ?
	frames      *prometheus.CounterVec // by result: decoded, rejected
	mismatches  prometheus.Counter
	health      prometheus.Gauge // rolling health, 0..1
	synced      prometheus.Gauge // 1 once a minute has been decoded
	lastDecoded prometheus.Gauge // Unix timestamp of the last decoded minute
	dut1        prometheus.Gauge // UT1-UTC in seconds

	lastSample uint64
	seen       bool
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		samples: f.NewCounter(prometheus.CounterOpts{
			Name: "wwvb_samples_total",
			Help: "Carrier samples processed",
		}),
		symbols: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wwvb_symbols_total",
			Help: "Decoded symbols by kind",
		}, []string{"symbol"}),
		frames: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wwvb_frames_total",
			Help: "Minute frames attempted after a mark, by result",
		}, []string{"result"}),
		mismatches: f.NewCounter(prometheus.CounterOpts{
			Name: "wwvb_mismatches_total",
			Help: "Decoded minutes disagreeing with the running time",
		}),
		health: f.NewGauge(prometheus.GaugeOpts{
			Name: "wwvb_health_ratio",
			Help: "Agreement of the last minute of samples with ideal symbols",
		}),
		synced: f.NewGauge(prometheus.GaugeOpts{
			Name: "wwvb_synced",
			Help: "Whether a minute has been decoded (1) or not (0)",
		}),
		lastDecoded: f.NewGauge(prometheus.GaugeOpts{
			Name: "wwvb_last_decoded_timestamp_seconds",
			Help: "UTC time of the last decoded minute",
		}),
		dut1: f.NewGauge(prometheus.GaugeOpts{
			Name: "wwvb_dut1_seconds",
			Help: "Broadcast UT1-UTC correction",
		}),
	}
}

// Observe records one clock event.
func (m *Metrics) Observe(ev clock.Event) {
	if m.seen {
		m.samples.Add(float64(ev.Sample - m.lastSample))
	} else {
		m.samples.Add(float64(ev.Sample + 1))
	}
	m.lastSample, m.seen = ev.Sample, true

	m.symbols.WithLabelValues(ev.Symbol.String()).Inc()
	m.health.Set(float64(ev.Health) / decoder.MaxHealth)

	switch {
	case ev.Decoded:
		m.frames.WithLabelValues("decoded").Inc()
		m.lastDecoded.Set(float64(ev.Frame.ToUTC().Unix()))
		m.dut1.Set(float64(ev.Frame.DUT1) / 10)
	case ev.FrameErr != nil:
		m.frames.WithLabelValues("rejected").Inc()
	}
	if ev.Mismatch {
		m.mismatches.Inc()
	}
	if ev.Synced {
		m.synced.Set(1)
	} else {
		m.synced.Set(0)
	}
}

// Serve exposes the metrics of gatherer over HTTP until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics: shutdown: %v", err)
		}
	}()

	log.Printf("Metrics: serving on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
