// Package platform defines the host capabilities the token client depends on
// (windows, popups, embedded browsers, route parameters and navigation) and
// provides two implementations of them.
//
// Headless is used where there is no browser: every operation is a no-op, so
// code built on top behaves uniformly without runtime checks.
//
// Desktop serves a CLI. It runs a CallbackServer on 127.0.0.1 and opens URLs
// in the system browser. A redirect arriving on the callback route is turned
// into a deliverCredentials (or authFailure) Message and also emitted as raw
// query parameters, so both the popup strategy and the callback-processing
// path can consume it.
package platform
