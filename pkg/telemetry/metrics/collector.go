package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trainerpass/guardian/pkg/config"
)

// Collector owns Guardian's metrics and provides one recording method per
// event.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	scanMetrics       *ScanMetrics
	moderationMetrics *ModerationMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector and registers its metrics. If registry is
// nil a new registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.ScanDurationBuckets) == 0 {
		cfg.ScanDurationBuckets = config.DefaultScanDurationBuckets()
	}
	maxRules := cfg.MaxRuleCardinality
	if maxRules <= 0 {
		maxRules = config.DefaultMaxRuleCardinality
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		scanMetrics:        NewScanMetrics(cfg, registry),
		moderationMetrics:  NewModerationMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(maxRules),
	}
}

// RecordScan records a completed check.
//
// Parameters:
//   - outcome: "allow", "flag", "reject" or "too_long"
//   - duration: time spent in the filter
func (c *Collector) RecordScan(outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.scanMetrics.RecordScan(outcome, duration)
}

// RecordViolation records a filter decision.
func (c *Collector) RecordViolation(category, severity, ruleID string) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(ruleID) {
		ruleID = "other"
	}
	c.scanMetrics.RecordViolation(category, severity, ruleID)
}

// RecordStrike records a strike added to an author. restricted reports
// whether this strike moved the author over the threshold.
func (c *Collector) RecordStrike(severity string, restricted bool) {
	if !c.config.Enabled {
		return
	}

	c.moderationMetrics.RecordStrike(severity, restricted)
}

// RecordModerationWrite records the outcome of writing a moderation record.
func (c *Collector) RecordModerationWrite(status string) {
	if !c.config.Enabled {
		return
	}

	c.moderationMetrics.RecordWrite(status)
}

// RecordPruned records moderation records removed by retention.
func (c *Collector) RecordPruned(count int64) {
	if !c.config.Enabled {
		return
	}

	c.moderationMetrics.RecordPruned(count)
}

// RecordRuleReload records a rule-set reload and the size of the active table.
func (c *Collector) RecordRuleReload(success bool, activeRules int) {
	if !c.config.Enabled {
		return
	}

	c.moderationMetrics.RecordRuleReload(success, activeRules)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct label values tracked.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter allowing up to maxCardinality values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already tracked or can still be added.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, exists := cl.current[value]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
