package http

import (
	"net/http"

	"github.com/google/uuid"

	context_ "github.com/mkrupp/storefront/internal/infra/context"
	"github.com/mkrupp/storefront/internal/util/encoding"
)

const TraceIDHeader = "X-Request-ID"

// TracingTransport sets the X-Request-ID header on outgoing requests.
// It uses the trace ID from the request context if present, otherwise
// generates a new UUIDv7. Headers already set by the caller are kept.
func TracingTransport(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get(TraceIDHeader) != "" {
			return next.RoundTrip(r)
		}

		traceID, ok := context_.TraceIDFromContext(r.Context())
		if !ok {
			traceID = NewTraceID()
		}

		r = r.Clone(context_.WithTraceID(r.Context(), traceID))
		r.Header.Set(TraceIDHeader, traceID)

		return next.RoundTrip(r)
	})
}

// NewTraceID returns a fresh time-ordered trace ID, or an empty string if
// no random source is available.
func NewTraceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return ""
	}

	return encoding.EncodeCrockfordB32LC(id[:])
}
