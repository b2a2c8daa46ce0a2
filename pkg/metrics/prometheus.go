package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements domain.repository.Metrics using Prometheus. Each
// Recorder owns its registry so batch runs can export it as a textfile.
type Recorder struct {
	registry     *prometheus.Registry
	stageSeconds *prometheus.HistogramVec
	stageErrors  *prometheus.CounterVec
	rows         *prometheus.CounterVec
	anomalies    *prometheus.GaugeVec
	lastSuccess  *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		stageSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gridpulse_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 180, 600},
			},
			[]string{"stage"},
		),
		stageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpulse_stage_errors_total",
				Help: "Total number of failed pipeline stages",
			},
			[]string{"stage"},
		),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpulse_stage_rows_total",
				Help: "Rows read or written by pipeline stages",
			},
			[]string{"stage", "direction"},
		),
		anomalies: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gridpulse_anomaly_days",
				Help: "Number of flagged anomaly days per region in the last feature run",
			},
			[]string{"region"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gridpulse_stage_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run of each stage",
			},
			[]string{"stage"},
		),
	}
	reg.MustRegister(r.stageSeconds, r.stageErrors, r.rows, r.anomalies, r.lastSuccess)
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return r
}

// RecordStage records a stage duration and its outcome.
func (r *Recorder) RecordStage(stage string, seconds float64, err error) {
	r.stageSeconds.WithLabelValues(stage).Observe(seconds)
	if err != nil {
		r.stageErrors.WithLabelValues(stage).Inc()
		return
	}
	r.lastSuccess.WithLabelValues(stage).SetToCurrentTime()
}

// RecordRows adds n rows for stage in direction "in" or "out".
func (r *Recorder) RecordRows(stage, direction string, n int) {
	r.rows.WithLabelValues(stage, direction).Add(float64(n))
}

// RecordAnomalies sets the flagged-day count for a region.
func (r *Recorder) RecordAnomalies(region string, n int) {
	r.anomalies.WithLabelValues(region).Set(float64(n))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// WriteTextfile writes the registry for the node-exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
