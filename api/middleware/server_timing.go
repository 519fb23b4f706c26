package middleware

import (
	"net/http"

	servertiming "github.com/mitchellh/go-server-timing"
)

// ServerTiming attaches a Server-Timing collector to every request. Handlers
// add spans through pkg/observability.
func ServerTiming() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return servertiming.Middleware(next, nil)
	}
}
