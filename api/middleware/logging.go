package middleware

import (
	"net/http"

	"github.com/felixge/httpsnoop"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Logging writes one line per request, at warn level for server errors.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})

			snoop := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))

			ctx = logg.WithFields(ctx, map[string]any{
				"status":      snoop.Code,
				"bytes":       snoop.Written,
				"duration_ms": snoop.Duration.Milliseconds(),
			})
			if snoop.Code >= http.StatusInternalServerError {
				logg.Warn(ctx, "request.failed")
				return
			}
			logg.Info(ctx, "request.complete")
		})
	}
}
