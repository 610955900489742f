package health

import (
	"encoding/json"
	"net/http"
	"runtime"

	"trainerpass/guardian/pkg/config"
)

// VersionInfo contains build and version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`

	// RulesVersion reports the fingerprint of the active rule set. It is
	// evaluated on every request.
	RulesVersion func() string `json:"-"`
}

type versionResponse struct {
	VersionInfo
	RulesVersion string `json:"rules_version,omitempty"`
}

// LivenessHandler returns the liveness probe handler.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, c.CheckLiveness(r.Context()))
	}
}

// ReadinessHandler returns the readiness probe handler. It responds 503
// when any registered check is unhealthy.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := c.CheckReadiness(r.Context())

		code := http.StatusOK
		if status.Status != StatusReady {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
	}
}

// VersionHandler returns the version information handler.
func VersionHandler(info VersionInfo) http.HandlerFunc {
	if info.GoVersion == "" {
		info.GoVersion = runtime.Version()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := versionResponse{VersionInfo: info}
		if info.RulesVersion != nil {
			resp.RulesVersion = info.RulesVersion()
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

// Mount registers the liveness, readiness and version handlers on mux at the
// configured paths. It does nothing when health endpoints are disabled.
func (c *Checker) Mount(mux *http.ServeMux, cfg config.HealthConfig, info VersionInfo) {
	if !cfg.Enabled {
		return
	}

	mux.Handle("GET "+cfg.LivenessPath, c.LivenessHandler())
	mux.Handle("GET "+cfg.ReadinessPath, c.ReadinessHandler())
	mux.Handle("GET "+cfg.VersionPath, VersionHandler(info))
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(v)
	}
}
