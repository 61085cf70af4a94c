package interceptor

import (
	"net/http"
	"regexp"
	"sync"

	"tokenauth/internal/credentials"
	"tokenauth/pkg/logging"
)

// CredentialSource is the part of the token manager the augmenter relies on.
type CredentialSource interface {
	// LoadFromStorage reloads credentials another process may have written.
	LoadFromStorage() bool
	// CurrentAuthData returns the active credential set, or nil.
	CurrentAuthData() *credentials.Set
	// ExtractFromResponseHeaders offers the auth headers of a response for install.
	ExtractFromResponseHeaders(h http.Header) bool
	// APIBase returns the URL pattern of requests that carry credentials.
	// An empty pattern matches every request.
	APIBase() string
}

// Augmenter attaches credentials to outgoing API requests and harvests
// refreshed credentials from responses.
type Augmenter struct {
	source CredentialSource

	mu      sync.Mutex
	pattern string
	rule    *regexp.Regexp
}

// NewAugmenter creates an augmenter backed by source.
func NewAugmenter(source CredentialSource) *Augmenter {
	return &Augmenter{source: source}
}

// AugmentRequest reloads credentials from storage and, when a set is held
// and the URL matches the API base, returns a clone of req carrying the five
// auth headers. Otherwise req itself is returned. req is never modified.
func (a *Augmenter) AugmentRequest(req *http.Request) *http.Request {
	a.source.LoadFromStorage()

	current := a.source.CurrentAuthData()
	if current == nil || !a.matches(req.URL.String()) {
		return req
	}

	out := req.Clone(req.Context())
	current.ApplyHeaders(out.Header)
	return out
}

// ObserveResponse hands the headers of resp to the token manager when its
// URL matches the API base. Error statuses are observed like any other.
func (a *Augmenter) ObserveResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	var rawURL string
	if resp.Request != nil && resp.Request.URL != nil {
		rawURL = resp.Request.URL.String()
	}

	rule := a.compiled()
	if rule != nil && (rawURL == "" || !rule.MatchString(rawURL)) {
		return
	}

	if a.source.ExtractFromResponseHeaders(resp.Header) {
		logging.Debug("Interceptor", "Installed refreshed credentials from %s", rawURL)
	}
}

func (a *Augmenter) matches(rawURL string) bool {
	rule := a.compiled()
	return rule == nil || rule.MatchString(rawURL)
}

// compiled returns the API base rule, recompiling only when the pattern
// changed. A pattern that does not compile matches nothing.
func (a *Augmenter) compiled() *regexp.Regexp {
	pattern := a.source.APIBase()

	a.mu.Lock()
	defer a.mu.Unlock()

	if pattern == "" {
		a.pattern, a.rule = "", nil
		return nil
	}
	if pattern == a.pattern && a.rule != nil {
		return a.rule
	}

	rule, err := regexp.Compile(pattern)
	if err != nil {
		logging.Warn("Interceptor", "Invalid apiBase pattern %q: %v", pattern, err)
		rule = regexp.MustCompile(`\A\z.`)
	}
	a.pattern, a.rule = pattern, rule
	return rule
}
