package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trainerpass/guardian/pkg/config"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"store": PingCheck(fakePinger{}),
				"rules": func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"store": PingCheck(fakePinger{err: errors.New("database is locked")}),
				"rules": func(context.Context) error { return nil },
			},
			wantStatus: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			status := c.CheckReadiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status.Status, tt.wantStatus)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("results = %d, want %d", len(status.Checks), len(tt.checks))
			}
		})
	}
}

func TestChecker_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})

	status := c.CheckReadiness(context.Background())
	res := status.Checks["slow"]
	if res.Status != StatusUnhealthy || res.Message != ErrCheckTimeout.Error() {
		t.Errorf("slow check = %+v, want timeout", res)
	}
}

func TestChecker_ListChecks(t *testing.T) {
	c := New(0)
	c.RegisterCheck("rules", func(context.Context) error { return nil })
	c.RegisterCheck("moderation_store", func(context.Context) error { return nil })
	c.RegisterCheck("rules", func(context.Context) error { return nil })

	got := c.ListChecks()
	if len(got) != 2 || got[0] != "moderation_store" || got[1] != "rules" {
		t.Errorf("ListChecks() = %v", got)
	}
}

func TestMount(t *testing.T) {
	cfg := config.HealthConfig{
		Enabled:       true,
		LivenessPath:  "/health",
		ReadinessPath: "/ready",
		VersionPath:   "/version",
	}
	c := New(time.Second)
	c.RegisterCheck("store", PingCheck(fakePinger{err: errors.New("down")}))

	mux := http.NewServeMux()
	c.Mount(mux, cfg, VersionInfo{
		Version:      "1.2.3",
		RulesVersion: func() string { return "builtin" },
	})

	tests := []struct {
		path     string
		wantCode int
		wantKey  string
		wantVal  string
	}{
		{"/health", http.StatusOK, "status", StatusOK},
		{"/ready", http.StatusServiceUnavailable, "status", StatusDegraded},
		{"/version", http.StatusOK, "rules_version", "builtin"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body[tt.wantKey] != tt.wantVal {
				t.Errorf("%s = %v, want %q", tt.wantKey, body[tt.wantKey], tt.wantVal)
			}
		})
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health = %d, want 405", rec.Code)
	}
}

func TestMount_Disabled(t *testing.T) {
	mux := http.NewServeMux()
	New(0).Mount(mux, config.HealthConfig{Enabled: false, LivenessPath: "/health"}, VersionInfo{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
