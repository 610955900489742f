package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"trainerpass/guardian/pkg/config"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:             true,
		Namespace:           "test",
		Subsystem:           "filter",
		ScanDurationBuckets: []float64{0.001, 0.01, 0.1},
		MaxRuleCardinality:  3,
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_NilRegistry(t *testing.T) {
	collector := NewCollector(&config.MetricsConfig{Enabled: true}, nil)
	if collector.Registry() == nil {
		t.Fatal("expected a registry to be created")
	}
	collector.RecordScan("allow", time.Millisecond)
	if got := testutil.ToFloat64(collector.scanMetrics.scansTotal.WithLabelValues("allow")); got != 1 {
		t.Errorf("scans_total{allow} = %v, want 1", got)
	}
}

func TestCollector_RecordScan(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordScan("allow", 200*time.Microsecond)
	collector.RecordScan("allow", 300*time.Microsecond)
	collector.RecordScan("reject", time.Millisecond)
	collector.RecordScan("too_long", 0)

	tests := []struct {
		outcome string
		want    float64
	}{
		{"allow", 2},
		{"reject", 1},
		{"too_long", 1},
		{"flag", 0},
	}
	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			got := testutil.ToFloat64(collector.scanMetrics.scansTotal.WithLabelValues(tt.outcome))
			if got != tt.want {
				t.Errorf("scans_total{%s} = %v, want %v", tt.outcome, got, tt.want)
			}
		})
	}

	// too_long is not observed in the histogram
	if n := testutil.CollectAndCount(collector.scanMetrics.scanDuration); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}

func TestCollector_RecordViolation_CardinalityLimit(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		collector.RecordViolation("profanity", "high", id)
	}
	collector.RecordViolation("profanity", "high", "a")

	vt := collector.scanMetrics.violationsTotal
	if got := testutil.ToFloat64(vt.WithLabelValues("profanity", "high", "a")); got != 2 {
		t.Errorf("rule a = %v, want 2", got)
	}
	if got := testutil.ToFloat64(vt.WithLabelValues("profanity", "high", "other")); got != 2 {
		t.Errorf("rule other = %v, want 2", got)
	}
	if got := collector.cardinalityLimiter.Count(); got != 3 {
		t.Errorf("cardinality = %d, want 3", got)
	}
}

func TestCollector_Moderation(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	mm := collector.moderationMetrics

	collector.RecordStrike("critical", false)
	collector.RecordStrike("critical", true)
	collector.RecordModerationWrite("stored")
	collector.RecordModerationWrite("dropped")
	collector.RecordPruned(7)
	collector.RecordPruned(0)
	collector.RecordRuleReload(true, 9)
	collector.RecordRuleReload(false, 0)

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"strikes critical", mm.strikesTotal.WithLabelValues("critical"), 2},
		{"restrictions", mm.restrictionsTotal, 1},
		{"records stored", mm.recordsTotal.WithLabelValues("stored"), 1},
		{"records dropped", mm.recordsTotal.WithLabelValues("dropped"), 1},
		{"pruned", mm.prunedTotal, 7},
		{"reload success", mm.ruleReloadsTotal.WithLabelValues("success"), 1},
		{"reload failure", mm.ruleReloadsTotal.WithLabelValues("failure"), 1},
		{"active rules", mm.activeRules, 9},
	}
	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordScan("allow", time.Millisecond)
	collector.RecordViolation("profanity", "high", "x")
	collector.RecordStrike("high", true)

	if got := testutil.ToFloat64(collector.scanMetrics.scansTotal.WithLabelValues("allow")); got != 0 {
		t.Errorf("disabled collector recorded scan: %v", got)
	}
	if got := collector.cardinalityLimiter.Count(); got != 0 {
		t.Errorf("disabled collector tracked rule ids: %d", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordViolation("self_harm", "critical", "self-harm")

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	want := `test_filter_violations_total{category="self_harm",rule_id="self-harm",severity="critical"} 1`
	if !strings.Contains(body, want) {
		t.Errorf("body missing %q:\n%s", want, body)
	}
}
