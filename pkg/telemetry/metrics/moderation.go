package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"trainerpass/guardian/pkg/config"
)

// ModerationMetrics tracks strikes, moderation records and rule reloads.
type ModerationMetrics struct {
	strikesTotal      *prometheus.CounterVec
	restrictionsTotal prometheus.Counter
	recordsTotal      *prometheus.CounterVec
	prunedTotal       prometheus.Counter
	ruleReloadsTotal  *prometheus.CounterVec
	activeRules       prometheus.Gauge
}

// NewModerationMetrics creates and registers moderation metrics.
func NewModerationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ModerationMetrics {
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}
	}

	mm := &ModerationMetrics{
		strikesTotal: prometheus.NewCounterVec(
			opts("strikes_total", "Total number of strikes added to authors"),
			[]string{"severity"},
		),
		restrictionsTotal: prometheus.NewCounter(
			opts("restrictions_total", "Total number of times an author crossed the strike threshold"),
		),
		recordsTotal: prometheus.NewCounterVec(
			opts("moderation_records_total", "Total number of moderation record writes, by status"),
			[]string{"status"},
		),
		prunedTotal: prometheus.NewCounter(
			opts("moderation_records_pruned_total", "Total number of moderation records removed by retention"),
		),
		ruleReloadsTotal: prometheus.NewCounterVec(
			opts("rule_reloads_total", "Total number of rule-set reloads, by status"),
			[]string{"status"},
		),
		activeRules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "active_rules",
			Help:      "Number of rules in the active filter",
		}),
	}

	registry.MustRegister(
		mm.strikesTotal,
		mm.restrictionsTotal,
		mm.recordsTotal,
		mm.prunedTotal,
		mm.ruleReloadsTotal,
		mm.activeRules,
	)

	return mm
}

// RecordStrike records a strike and, if it caused one, a restriction.
func (mm *ModerationMetrics) RecordStrike(severity string, restricted bool) {
	mm.strikesTotal.WithLabelValues(severity).Inc()
	if restricted {
		mm.restrictionsTotal.Inc()
	}
}

// RecordWrite records a moderation record write outcome.
func (mm *ModerationMetrics) RecordWrite(status string) {
	mm.recordsTotal.WithLabelValues(status).Inc()
}

// RecordPruned adds count to the pruned records counter.
func (mm *ModerationMetrics) RecordPruned(count int64) {
	if count > 0 {
		mm.prunedTotal.Add(float64(count))
	}
}

// RecordRuleReload records a reload outcome and the active rule count.
func (mm *ModerationMetrics) RecordRuleReload(success bool, activeRules int) {
	if !success {
		mm.ruleReloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	mm.ruleReloadsTotal.WithLabelValues("success").Inc()
	mm.activeRules.Set(float64(activeRules))
}
