// Package telemetry groups Guardian's observability packages.
//
//   - logging: slog logger with redaction of contact details and secrets
//   - metrics: Prometheus collector for scans, violations and strikes
//   - tracing: OpenTelemetry tracing exported over OTLP/gRPC
//   - health: liveness, readiness and version endpoints
//
// Logs never contain submitted text in full; matched text is masked and
// phone numbers and emails are redacted from every attribute.
package telemetry
