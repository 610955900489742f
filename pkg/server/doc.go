// Package server exposes the moderation service over HTTP.
//
// # Endpoints
//
//	POST   /v1/scan                          check a submission
//	GET    /v1/rules                         active rule table and policy version
//	GET    /v1/moderation/records            query moderation records (json or csv)
//	GET    /v1/authors/{author}/standing     strike standing
//	DELETE /v1/authors/{author}/strikes      reset strikes
//	GET    /health, /ready, /version         health endpoints
//	GET    /metrics                          Prometheus exposition
//
// Requests pass through recovery, logging and request ID middleware, in
// that order from the outside in. Errors are returned as
//
//	{"error": {"message": "...", "type": "..."}}
//
// # Usage
//
//	srv, err := server.New(cfg.Server, server.Options{
//	    Moderator: moderator,
//	    Rules:     manager,
//	    Records:   store,
//	    Strikes:   tracker,
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx) // returns after ctx is cancelled and shutdown completes
package server
