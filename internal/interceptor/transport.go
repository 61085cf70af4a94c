package interceptor

import (
	"net/http"
)

// Transport is an http.RoundTripper that runs every request through an
// Augmenter.
type Transport struct {
	Augmenter *Augmenter

	// Base performs the request. http.DefaultTransport when nil.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := t.Augmenter.AugmentRequest(req)

	resp, err := t.base().RoundTrip(out)
	if resp != nil {
		t.Augmenter.ObserveResponse(resp)
	}
	return resp, err
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
