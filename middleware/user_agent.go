package middleware

import "net/http"

// UserAgent sets the User-Agent header when the request has none.
func UserAgent(ua string) Decorator {
	return func(next http.RoundTripper) http.RoundTripper {
		if ua == "" {
			return next
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("User-Agent") != "" {
				return next.RoundTrip(req)
			}
			out := req.Clone(req.Context())
			out.Header.Set("User-Agent", ua)
			return next.RoundTrip(out)
		})
	}
}
