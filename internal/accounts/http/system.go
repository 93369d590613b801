package http

import (
	"net/http"
	"time"

	"github.com/clipfeedhq/clipfeed/internal/accounts/store"
	"github.com/clipfeedhq/clipfeed/pkg/httpx"
)

type healthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// LivezHandler always answers 200 while the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteSuccess(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}, "Service is live.")
	}
}

// ReadyzHandler answers 200 only when the backing store is reachable.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		checks := map[string]string{"database": "ok"}

		if err := st.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
			checks["database"] = "error: " + err.Error()
		}

		resp := healthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		if code == http.StatusOK {
			httpx.WriteSuccess(w, code, resp, "Service is ready.")
			return
		}
		httpx.WriteFailure(w, code, "Service is not ready.")
	}
}
