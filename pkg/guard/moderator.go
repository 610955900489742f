package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/filter"
	"trainerpass/guardian/pkg/moderation"
	"trainerpass/guardian/pkg/moderation/recorder"
	"trainerpass/guardian/pkg/policy"
	"trainerpass/guardian/pkg/strikes"
	"trainerpass/guardian/pkg/telemetry/logging"
	"trainerpass/guardian/pkg/telemetry/tracing"
)

// ErrTextTooLong is returned when a submission exceeds the length cap.
var ErrTextTooLong = errors.New("text too long")

// OutcomeTooLong is the scan outcome reported for over-long submissions.
const OutcomeTooLong = "too_long"

// Submission is user text to check.
type Submission struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
	Source string `json:"source,omitempty"`
}

// Verdict is the result of a check.
type Verdict struct {
	Allowed       bool              `json:"allowed"`
	Action        moderation.Action `json:"action"`
	Decision      *filter.Decision  `json:"decision,omitempty"`
	Standing      *strikes.Standing `json:"standing,omitempty"`
	RecordID      string            `json:"record_id,omitempty"`
	PolicyVersion string            `json:"policy_version"`
}

// Rules supplies the active filter and its version as one consistent pair.
// *policy.Manager implements it.
type Rules interface {
	Snapshot() *policy.Snapshot
}

// Recorder queues moderation records.
type Recorder interface {
	Record(ctx context.Context, e recorder.Entry) (string, error)
}

// StrikeTracker adds strikes to authors.
type StrikeTracker interface {
	Record(ctx context.Context, author, severity, ruleID string) (*strikes.Standing, error)
}

// Metrics receives check events.
type Metrics interface {
	RecordScan(outcome string, duration time.Duration)
	RecordViolation(category, severity, ruleID string)
	RecordStrike(severity string, restricted bool)
}

// SpanStarter starts trace spans. *tracing.Tracer implements it.
type SpanStarter interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

// Option configures a Moderator.
type Option func(*Moderator)

// WithRecorder records violations.
func WithRecorder(r Recorder) Option {
	return func(m *Moderator) { m.recorder = r }
}

// WithStrikes adds a strike per violation for submissions with an author.
func WithStrikes(t StrikeTracker) Option {
	return func(m *Moderator) { m.strikes = t }
}

// WithMetrics reports checks to a metrics sink.
func WithMetrics(mt Metrics) Option {
	return func(m *Moderator) { m.metrics = mt }
}

// WithTracer traces every check.
func WithTracer(t SpanStarter) Option {
	return func(m *Moderator) { m.tracer = t }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Moderator) { m.logger = l }
}

// Moderator checks submissions. It is safe for concurrent use.
type Moderator struct {
	rules         Rules
	maxTextLength int
	blockRank     int

	recorder Recorder
	strikes  StrikeTracker
	metrics  Metrics
	tracer   SpanStarter
	logger   *slog.Logger
}

// New creates a Moderator enforcing cfg against the rules from rules.
func New(rules Rules, cfg config.EnforcementConfig, opts ...Option) (*Moderator, error) {
	if rules == nil {
		return nil, errors.New("rules source is required")
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = config.DefaultMaxTextLength
	}
	if cfg.BlockSeverity == "" {
		cfg.BlockSeverity = config.DefaultBlockSeverity
	}
	block, err := filter.ParseSeverity(cfg.BlockSeverity)
	if err != nil {
		return nil, fmt.Errorf("invalid block severity: %w", err)
	}

	m := &Moderator{
		rules:         rules,
		maxTextLength: cfg.MaxTextLength,
		blockRank:     block.Rank(),
		tracer:        noop.NewTracerProvider().Tracer(""),
		logger:        slog.Default().With("component", "guard"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// ActionFor maps a decision to an action. A nil decision is allowed.
func (m *Moderator) ActionFor(d *filter.Decision) moderation.Action {
	switch {
	case d == nil:
		return moderation.ActionAllow
	case d.Severity.Rank() >= m.blockRank:
		return moderation.ActionReject
	default:
		return moderation.ActionFlag
	}
}

// Check scans a submission and applies enforcement.
func (m *Moderator) Check(ctx context.Context, sub Submission) (*Verdict, error) {
	ctx, span := m.tracer.Start(ctx, "guard.Check")
	defer span.End()

	length := utf8.RuneCountInString(sub.Text)
	tracing.SetSubmissionAttributes(span, logging.GetRequestID(ctx), sub.Source, length)

	if length > m.maxTextLength {
		err := fmt.Errorf("%w: %d characters exceeds limit of %d", ErrTextTooLong, length, m.maxTextLength)
		tracing.SetError(span, err)
		if m.metrics != nil {
			m.metrics.RecordScan(OutcomeTooLong, 0)
		}
		return nil, err
	}

	snap := m.rules.Snapshot()
	f, version := snap.Filter, snap.Version

	start := time.Now()
	decision := f.Scan(sub.Text)
	elapsed := time.Since(start)

	action := m.ActionFor(decision)
	verdict := &Verdict{
		Allowed:       action != moderation.ActionReject,
		Action:        action,
		Decision:      decision,
		PolicyVersion: version,
	}

	span.SetAttributes(attribute.String(tracing.AttrPolicyVersion, version))
	tracing.SetDecisionAttributes(span, decision, string(action))
	if m.metrics != nil {
		m.metrics.RecordScan(string(action), elapsed)
	}
	if decision == nil {
		return verdict, nil
	}

	if m.metrics != nil {
		m.metrics.RecordViolation(string(decision.Category), string(decision.Severity), decision.RuleID)
	}

	logger := m.logger.With(
		"request_id", logging.GetRequestID(ctx),
		"author", sub.Author,
		"source", sub.Source,
	)
	logger.Info("content violation",
		"category", decision.Category,
		"severity", decision.Severity,
		"rule_id", decision.RuleID,
		"match", decision.Match,
		"action", action,
		"policy_version", version,
	)

	if m.recorder != nil {
		id, err := m.recorder.Record(ctx, recorder.Entry{
			RequestID:     logging.GetRequestID(ctx),
			Author:        sub.Author,
			Source:        sub.Source,
			Text:          sub.Text,
			Decision:      decision,
			Action:        action,
			PolicyVersion: version,
			ScannedAt:     start,
		})
		if err != nil {
			logger.Error("failed to record moderation record", "error", err)
		} else {
			verdict.RecordID = id
		}
	}

	if m.strikes != nil && sub.Author != "" {
		standing, err := m.strikes.Record(ctx, sub.Author, string(decision.Severity), decision.RuleID)
		if err != nil {
			logger.Error("failed to record strike", "error", err)
		} else {
			verdict.Standing = standing
			tracing.SetStandingAttributes(span, standing.Points, standing.Restricted)
			if m.metrics != nil {
				m.metrics.RecordStrike(string(decision.Severity), standing.Restricted)
			}
		}
	}

	return verdict, nil
}
