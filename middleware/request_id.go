package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID is the header written by [RequestID].
const HeaderRequestID = "X-Request-ID"

type requestIDContextKey struct{}

// WithRequestID pins the id RequestID will send for requests built from ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns an id pinned with WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey{}).(string)
	return id, ok && id != ""
}

// RequestID sets HeaderRequestID on requests that lack it. The id comes from
// the request context when pinned, otherwise a fresh UUID.
func RequestID() Decorator {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(HeaderRequestID) != "" {
				return next.RoundTrip(req)
			}
			id, ok := RequestIDFromContext(req.Context())
			if !ok {
				id = uuid.NewString()
			}
			out := req.Clone(req.Context())
			out.Header.Set(HeaderRequestID, id)
			return next.RoundTrip(out)
		})
	}
}
