// Package config loads, validates and exposes Guardian configuration.
//
// Configuration is read from a YAML file, decoded on top of built-in
// defaults, overridden by GUARDIAN_* environment variables and validated as
// a whole. Validation collects every problem into a single ValidationError.
//
//	if err := config.Initialize("config.yaml", true); err != nil {
//		return err
//	}
//	cfg := config.GetConfig()
//
// Example file:
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//	filter:
//	  rules_file: "rules.yaml"
//	  watch: true
//	enforcement:
//	  max_text_length: 5000
//	  block_severity: high
//	strikes:
//	  backend: sqlite
//	  threshold: 8
//	moderation:
//	  backend: sqlite
//	  retention:
//	    days: 30
//	telemetry:
//	  logging:
//	    level: debug
//	    format: text
package config
