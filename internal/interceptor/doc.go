// Package interceptor attaches the active credential set to outgoing API
// requests and feeds the auth headers of every API response back to the
// token manager, so rotated tokens are picked up without caller involvement.
//
// Transport wraps any http.RoundTripper:
//
//	client := &http.Client{Transport: &interceptor.Transport{
//	    Augmenter: interceptor.NewAugmenter(manager),
//	}}
package interceptor
