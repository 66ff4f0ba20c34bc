package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	FramesExtracted prometheus.Counter
	ShotsScanned    *prometheus.CounterVec
	KeyframesTotal  *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyframer_runs_total",
				Help: "Total number of runs, by method and status",
			},
			[]string{"method", "status"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyframer_stage_duration_seconds",
				Help:    "Duration of each pipeline stage",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),
		FramesExtracted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "keyframer_frames_extracted_total",
				Help: "Total number of frames written by ffmpeg",
			},
		),
		ShotsScanned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyframer_shots_scanned_total",
				Help: "Total number of shots scanned, by method",
			},
			[]string{"method"},
		),
		KeyframesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyframer_keyframes_selected_total",
				Help: "Total number of keyframes selected, by method",
			},
			[]string{"method"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyframer_cache_lookups_total",
				Help: "Result cache lookups, by outcome",
			},
			[]string{"result"},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, started time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// RecordRun counts a finished run.
func (m *Metrics) RecordRun(method string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.RunsTotal.WithLabelValues(method, status).Inc()
}

// RecordCache counts a cache lookup.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordSelection counts scanned shots and selected keyframes.
func (m *Metrics) RecordSelection(method string, shots, keyframes int) {
	if m == nil {
		return
	}
	m.ShotsScanned.WithLabelValues(method).Add(float64(shots))
	m.KeyframesTotal.WithLabelValues(method).Add(float64(keyframes))
}

// RecordFrames counts extracted frames.
func (m *Metrics) RecordFrames(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FramesExtracted.Add(float64(n))
}

// WriteTextfile writes all collectors to path in the text exposition format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
