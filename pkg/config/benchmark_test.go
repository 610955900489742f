package config

import (
	"os"
	"path/filepath"
	"testing"
)

// BenchmarkLoadConfig benchmarks loading a typical configuration file.
func BenchmarkLoadConfig(b *testing.B) {
	configPath := filepath.Join(b.TempDir(), "config.yaml")
	configContent := `
server:
  listen_address: "127.0.0.1:8080"
  read_timeout: "10s"
  write_timeout: "10s"

filter:
  rules_file: ""
  phone_detection: true
  disabled_rules: [mild-profanity]

enforcement:
  max_text_length: 5000
  block_severity: high

strikes:
  enabled: true
  backend: memory
  window: 720h
  threshold: 10
  weights:
    critical: 5
    high: 3
    medium: 1

moderation:
  enabled: true
  backend: sqlite
  sqlite:
    path: "./moderation.db"
  retention:
    days: 90
    schedule: "0 3 * * *"

telemetry:
  logging:
    level: "info"
    format: "json"
  metrics:
    enabled: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		b.Fatalf("failed to write config file: %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := LoadConfig(configPath); err != nil {
			b.Fatalf("failed to load config: %v", err)
		}
	}
}

func BenchmarkValidate(b *testing.B) {
	cfg := Defaults()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := Validate(cfg); err != nil {
			b.Fatalf("validation failed: %v", err)
		}
	}
}

func BenchmarkApplyDefaults(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		cfg := &Config{}
		ApplyDefaults(cfg)
	}
}

// BenchmarkGetConfig measures read contention on the global configuration.
func BenchmarkGetConfig(b *testing.B) {
	SetConfig(Defaults())
	b.Cleanup(resetForTesting)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = GetConfig()
		}
	})
}
