package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cauldronwatch/backend/internal/models"
)

// Metrics holds the collectors describing the latest analysis results.
// Each instance owns its registry so tests and servers do not share state.
type Metrics struct {
	Registry *prometheus.Registry

	fillRate       *prometheus.GaugeVec
	etaMinutes     *prometheus.GaugeVec
	missingVolume  *prometheus.GaugeVec
	analysisDur    *prometheus.HistogramVec
	sourceFailures *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}
	m.fillRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cauldron",
		Name:      "fill_rate_liters_per_minute",
		Help:      "Estimated fill rate per vessel from the last reconciliation.",
	}, []string{"vessel_id"})
	m.etaMinutes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cauldron",
		Name:      "overflow_eta_minutes",
		Help:      "Minutes until overflow per vessel from the last forecast (999 when not filling).",
	}, []string{"vessel_id"})
	m.missingVolume = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cauldron",
		Name:      "discrepancy_missing_liters",
		Help:      "Sum of missing volume per vessel and classification from the last discrepancy run.",
	}, []string{"vessel_id", "classification"})
	m.analysisDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cauldron",
		Name:      "analysis_duration_seconds",
		Help:      "Time spent per analysis operation, source load included.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"operation"})
	m.sourceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cauldron",
		Name:      "source_failures_total",
		Help:      "Failed loads from the telemetry source, labeled by record kind.",
	}, []string{"kind"})

	m.Registry.MustRegister(m.fillRate, m.etaMinutes, m.missingVolume, m.analysisDur, m.sourceFailures)
	return m
}

// ObserveDuration records the time since start for operation. Safe on nil.
func (m *Metrics) ObserveDuration(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.analysisDur.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SourceFailure(kind string) {
	if m == nil {
		return
	}
	m.sourceFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetFillRate(vesselID string, rate float64) {
	if m == nil {
		return
	}
	m.fillRate.WithLabelValues(vesselID).Set(rate)
}

func (m *Metrics) RecordForecasts(records []models.ForecastRecord) {
	if m == nil {
		return
	}
	for _, r := range records {
		m.etaMinutes.WithLabelValues(r.VesselID).Set(r.ETAMinutes)
	}
}

// RecordDiscrepancies replaces the missing-volume gauges with the totals of
// records.
func (m *Metrics) RecordDiscrepancies(records []models.DiscrepancyRecord) {
	if m == nil {
		return
	}
	m.missingVolume.Reset()
	for _, r := range records {
		m.missingVolume.WithLabelValues(r.VesselID, r.Classification).Add(r.MissingVolume)
	}
}
