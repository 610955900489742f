// Package health provides liveness, readiness and version endpoints.
//
// Liveness always succeeds while the process runs. Readiness runs every
// registered check concurrently, each bounded by the check timeout, and
// reports 503 when any check fails. Components register checks by name:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("moderation_store", health.PingCheck(store))
//	checker.RegisterCheck("rules", manager.HealthCheck)
//	checker.Mount(mux, cfg.Telemetry.Health, info)
package health
