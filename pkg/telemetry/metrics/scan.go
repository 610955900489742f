package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trainerpass/guardian/pkg/config"
)

// ScanMetrics tracks filter checks and violations.
type ScanMetrics struct {
	scansTotal      *prometheus.CounterVec
	violationsTotal *prometheus.CounterVec
	scanDuration    prometheus.Histogram
}

// NewScanMetrics creates and registers scan metrics with the provided registry.
func NewScanMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ScanMetrics {
	sm := &ScanMetrics{
		scansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "scans_total",
				Help:      "Total number of submissions checked, by outcome",
			},
			[]string{"outcome"},
		),

		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "violations_total",
				Help:      "Total number of content violations, by matching rule",
			},
			[]string{"category", "severity", "rule_id"},
		),

		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "scan_duration_seconds",
				Help:      "Duration of a filter scan in seconds",
				Buckets:   cfg.ScanDurationBuckets,
			},
		),
	}

	registry.MustRegister(
		sm.scansTotal,
		sm.violationsTotal,
		sm.scanDuration,
	)

	return sm
}

// RecordScan records a check outcome and its scan duration. Checks rejected
// before scanning (too_long) have no duration.
func (sm *ScanMetrics) RecordScan(outcome string, duration time.Duration) {
	sm.scansTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		sm.scanDuration.Observe(duration.Seconds())
	}
}

// RecordViolation records a violation.
func (sm *ScanMetrics) RecordViolation(category, severity, ruleID string) {
	sm.violationsTotal.WithLabelValues(category, severity, ruleID).Inc()
}
