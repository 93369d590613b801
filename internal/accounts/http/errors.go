package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/clipfeedhq/clipfeed/internal/accounts/service"
	"github.com/clipfeedhq/clipfeed/pkg/httpx"
)

// writeServiceError maps a service failure onto the response envelope. Typed
// errors carry their own status and user-safe message; anything else becomes
// a generic 500. Internal causes go to the log, never the client.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		if svcErr.Status >= http.StatusInternalServerError {
			log.Error("request failed", "err", svcErr.Err, "message", svcErr.Message)
		}
		httpx.WriteFailure(w, svcErr.Status, svcErr.Message)
		return
	}

	log.Error("request failed with unclassified error", "err", err)
	httpx.WriteFailure(w, http.StatusInternalServerError, "Something went wrong.")
}
