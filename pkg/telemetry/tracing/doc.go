// Package tracing provides OpenTelemetry tracing for Guardian.
//
// When tracing is enabled, spans are exported over OTLP/gRPC to the
// configured collector and W3C Trace Context is propagated from incoming
// HTTP requests. When disabled, New returns a tracer backed by the noop
// provider so callers can create spans unconditionally.
//
// Usage:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "guardian.check")
//	defer span.End()
//	tracing.SetDecisionAttributes(span, decision)
package tracing
