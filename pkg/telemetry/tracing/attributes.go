package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trainerpass/guardian/pkg/filter"
)

// Span attribute keys. Custom keys use the "guardian.*" namespace.
const (
	AttrRequestID     = "guardian.request_id"
	AttrSource        = "guardian.source"
	AttrTextLength    = "guardian.text.length"
	AttrPolicyVersion = "guardian.policy.version"

	AttrViolation = "guardian.violation"
	AttrRuleID    = "guardian.rule.id"
	AttrCategory  = "guardian.rule.category"
	AttrSeverity  = "guardian.rule.severity"
	AttrAction    = "guardian.action"

	AttrStrikePoints = "guardian.strikes.points"
	AttrRestricted   = "guardian.strikes.restricted"
)

// SetSubmissionAttributes records what was submitted. The author and text are
// never attached to spans.
func SetSubmissionAttributes(span trace.Span, requestID, source string, textLength int) {
	attrs := []attribute.KeyValue{
		attribute.Int(AttrTextLength, textLength),
	}
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	if source != "" {
		attrs = append(attrs, attribute.String(AttrSource, source))
	}
	span.SetAttributes(attrs...)
}

// SetDecisionAttributes records the filter outcome. The matched text is
// omitted.
func SetDecisionAttributes(span trace.Span, d *filter.Decision, action string) {
	if d == nil {
		span.SetAttributes(
			attribute.Bool(AttrViolation, false),
			attribute.String(AttrAction, action),
		)
		return
	}
	span.SetAttributes(
		attribute.Bool(AttrViolation, true),
		attribute.String(AttrRuleID, d.RuleID),
		attribute.String(AttrCategory, string(d.Category)),
		attribute.String(AttrSeverity, string(d.Severity)),
		attribute.String(AttrAction, action),
	)
}

// SetStandingAttributes records an author's strike standing.
func SetStandingAttributes(span trace.Span, points int, restricted bool) {
	span.SetAttributes(
		attribute.Int(AttrStrikePoints, points),
		attribute.Bool(AttrRestricted, restricted),
	)
}
