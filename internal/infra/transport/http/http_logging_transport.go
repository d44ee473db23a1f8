package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mkrupp/storefront/internal/infra/logging"
)

// LoggingTransport logs outgoing requests at DEBUG level and their outcome
// at a level determined by the status code:
// - transport error or 5xx: ERROR
// - 4xx: WARN
// - Other: DEBUG.
//
// If log is nil, the "infra.transport.http" logger is used.
func LoggingTransport(next http.RoundTripper, log logging.Logger) http.RoundTripper {
	if log == nil {
		log = logging.GetLogger("infra.transport.http")
	}

	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		ctx := r.Context()

		log.DebugContext(ctx, "request", slog.Group("http",
			"url", r.URL.Redacted(),
			"method", r.Method,
		))

		start := time.Now()

		resp, err := next.RoundTrip(r)
		if err != nil {
			log.ErrorContext(ctx, "request failed", slog.Group("http",
				"url", r.URL.Redacted(),
				"method", r.Method,
				"duration", time.Since(start),
			), "error", err)

			return nil, err //nolint:wrapcheck
		}

		var level logging.Level

		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			level = logging.LevelError
		case resp.StatusCode >= http.StatusBadRequest:
			level = logging.LevelWarn
		default:
			level = logging.LevelDebug
		}

		log.Log(ctx, level, "response", slog.Group("http",
			"url", r.URL.Redacted(),
			"method", r.Method,
			"status", resp.StatusCode,
			"bytes_received", resp.ContentLength,
			"duration", time.Since(start),
		))

		return resp, nil
	})
}
