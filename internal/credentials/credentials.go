package credentials

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Header names of the token contract, set on requests and read from responses.
const (
	HeaderAccessToken = "access-token"
	HeaderClient      = "client"
	HeaderExpiry      = "expiry"
	HeaderTokenType   = "token-type"
	HeaderUID         = "uid"
)

// TokenTypeBearer is the token type of credentials delivered by OAuth and
// query parameters, which do not carry one.
const TokenTypeBearer = "Bearer"

// Set is the five-field token bundle identifying an authenticated session.
// A string field is missing when empty; Expiry is missing when zero.
type Set struct {
	AccessToken string `json:"accessToken"`
	Client      string `json:"client"`
	// Expiry is the expiry time in epoch seconds.
	Expiry    int64  `json:"expiry"`
	TokenType string `json:"tokenType"`
	UID       string `json:"uid"`
}

// ParseExpiry parses an epoch-seconds expiry. Anything that is not a
// positive base-10 integer yields 0, i.e. a missing expiry.
func ParseExpiry(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// FormatExpiry renders an expiry the way it travels in headers and storage.
func FormatExpiry(expiry int64) string {
	if expiry == 0 {
		return ""
	}
	return strconv.FormatInt(expiry, 10)
}

// FromHeader reads a candidate set from the five response headers.
func FromHeader(h http.Header) Set {
	return Set{
		AccessToken: headerValue(h, HeaderAccessToken),
		Client:      headerValue(h, HeaderClient),
		Expiry:      ParseExpiry(headerValue(h, HeaderExpiry)),
		TokenType:   headerValue(h, HeaderTokenType),
		UID:         headerValue(h, HeaderUID),
	}
}

// headerValue reads name exactly as written on the wire. Responses built by
// net/http canonicalize keys, so the canonical form is tried as well.
func headerValue(h http.Header, name string) string {
	if v, ok := h[name]; ok && len(v) > 0 {
		return v[0]
	}
	return h.Get(name)
}

// FromPostMessage reads a candidate set from an OAuth popup payload.
func FromPostMessage(data map[string]string) Set {
	return Set{
		AccessToken: data["auth_token"],
		Client:      data["client_id"],
		Expiry:      ParseExpiry(data["expiry"]),
		TokenType:   TokenTypeBearer,
		UID:         data["uid"],
	}
}

// FromQueryParams reads a candidate set from redirect query parameters.
// The token is taken from "token", falling back to "auth_token".
func FromQueryParams(params url.Values) Set {
	token := params.Get("token")
	if token == "" {
		token = params.Get("auth_token")
	}
	return Set{
		AccessToken: token,
		Client:      params.Get("client_id"),
		Expiry:      ParseExpiry(params.Get("expiry")),
		TokenType:   TokenTypeBearer,
		UID:         params.Get("uid"),
	}
}

// ApplyHeaders sets the five auth headers on h.
func (s Set) ApplyHeaders(h http.Header) {
	h[HeaderAccessToken] = []string{s.AccessToken}
	h[HeaderClient] = []string{s.Client}
	h[HeaderExpiry] = []string{FormatExpiry(s.Expiry)}
	h[HeaderTokenType] = []string{s.TokenType}
	h[HeaderUID] = []string{s.UID}
}

// ExpiresAt returns the expiry as a time, zero when missing.
func (s Set) ExpiresAt() time.Time {
	if s.Expiry == 0 {
		return time.Time{}
	}
	return time.Unix(s.Expiry, 0)
}

// OAuth2Token converts the set for use with golang.org/x/oauth2 clients.
// Client and uid travel as extra fields.
func (s Set) OAuth2Token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken: s.AccessToken,
		TokenType:   s.TokenType,
		Expiry:      s.ExpiresAt(),
	}
	return token.WithExtra(map[string]interface{}{
		"client": s.Client,
		"uid":    s.UID,
	})
}
