package middleware

import "net/http"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Decorator wraps a transport.
type Decorator func(http.RoundTripper) http.RoundTripper

// Chain wraps base with decorators so that decorators[0] runs first.
// A nil base means http.DefaultTransport.
func Chain(base http.RoundTripper, decorators ...Decorator) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(decorators) - 1; i >= 0; i-- {
		if decorators[i] != nil {
			base = decorators[i](base)
		}
	}
	return base
}
