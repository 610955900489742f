// Package metrics exposes Guardian's Prometheus metrics.
//
// Metrics (namespace and subsystem default to guardian_filter):
//   - scans_total{outcome}: submissions checked, by outcome (allow, flag, reject, too_long)
//   - violations_total{category,severity,rule_id}: violations by matching rule
//   - scan_duration_seconds: filter scan latency
//   - strikes_total{severity}: strikes added to authors
//   - restrictions_total: authors crossing the strike threshold
//   - moderation_records_total{status}: moderation record writes (stored, dropped, failed)
//   - moderation_records_pruned_total: records removed by retention
//   - rule_reloads_total{status}: rule-set reloads (success, failure)
//   - active_rules: rules in the active filter
//
// Every recording method is a no-op when metrics are disabled. The rule_id
// label is capped by a cardinality limiter; rules past the cap are reported
// as "other".
package metrics
