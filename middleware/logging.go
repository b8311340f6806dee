package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Logging logs each round trip at debug level, and transport errors at warn.
// Only the method, path, status, duration and request id are recorded.
func Logging(logger logrus.FieldLogger) Decorator {
	return func(next http.RoundTripper) http.RoundTripper {
		if logger == nil {
			return next
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			entry := logger.WithFields(logrus.Fields{
				"method":      req.Method,
				"path":        req.URL.Path,
				"request_id":  req.Header.Get(HeaderRequestID),
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if err != nil {
				entry.WithError(err).Warn("backend request failed")
				return resp, err
			}
			entry.WithField("status", resp.StatusCode).Debug("backend request")
			return resp, nil
		})
	}
}
