package credentials

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenauth/internal/storage"
)

func completeSet(expiry int64) Set {
	return Set{
		AccessToken: "token",
		Client:      "client",
		Expiry:      expiry,
		TokenType:   "Bearer",
		UID:         "alice@example.com",
	}
}

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"2000000000", 2000000000},
		{" 42 ", 42},
		{"", 0},
		{"soon", 0},
		{"-5", 0},
		{"1.5", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseExpiry(tt.in), "ParseExpiry(%q)", tt.in)
	}
	assert.Equal(t, "", FormatExpiry(0))
	assert.Equal(t, "999999999999", FormatExpiry(999999999999))
}

func TestIsComplete(t *testing.T) {
	assert.True(t, IsComplete(completeSet(10)))

	missing := map[string]func(*Set){
		"access token": func(s *Set) { s.AccessToken = "" },
		"client":       func(s *Set) { s.Client = "" },
		"expiry":       func(s *Set) { s.Expiry = 0 },
		"token type":   func(s *Set) { s.TokenType = "" },
		"uid":          func(s *Set) { s.UID = "" },
	}
	for name, drop := range missing {
		t.Run(name, func(t *testing.T) {
			s := completeSet(10)
			drop(&s)
			assert.False(t, IsComplete(s))
			assert.False(t, IsAcceptable(s, nil))
		})
	}
}

func TestIsAcceptable(t *testing.T) {
	current := completeSet(1000)

	assert.True(t, IsAcceptable(completeSet(1), nil), "any complete set is acceptable with nothing held")
	assert.True(t, IsAcceptable(completeSet(1000), &current), "equal expiry is acceptable")
	assert.True(t, IsAcceptable(completeSet(1001), &current))
	assert.False(t, IsAcceptable(completeSet(500), &current), "stale set is rejected")
}

func TestIsAcceptable_ComparesNumerically(t *testing.T) {
	// "900" > "1000" lexically; numeric comparison must not regress.
	current := completeSet(ParseExpiry("900"))
	assert.True(t, IsAcceptable(completeSet(ParseExpiry("1000")), &current))

	current = completeSet(ParseExpiry("1000"))
	assert.False(t, IsAcceptable(completeSet(ParseExpiry("900")), &current))
}

func TestFromHeader(t *testing.T) {
	h := http.Header{}
	h.Set("access-token", "t")
	h.Set("client", "c")
	h.Set("expiry", "77")
	h.Set("token-type", "Bearer")
	h.Set("uid", "u")

	assert.Equal(t, Set{AccessToken: "t", Client: "c", Expiry: 77, TokenType: "Bearer", UID: "u"}, FromHeader(h))

	raw := http.Header{"access-token": {"raw"}}
	assert.Equal(t, "raw", FromHeader(raw).AccessToken)
}

func TestApplyHeaders_RoundTrip(t *testing.T) {
	h := http.Header{}
	s := completeSet(123)
	s.ApplyHeaders(h)

	assert.Equal(t, []string{"token"}, h["access-token"])
	assert.Equal(t, []string{"123"}, h["expiry"])
	assert.Equal(t, s, FromHeader(h))
}

func TestFromPostMessage(t *testing.T) {
	got := FromPostMessage(map[string]string{
		"auth_token": "t",
		"client_id":  "c",
		"expiry":     "999999999999",
		"uid":        "u",
	})
	assert.Equal(t, Set{AccessToken: "t", Client: "c", Expiry: 999999999999, TokenType: "Bearer", UID: "u"}, got)
}

func TestFromQueryParams(t *testing.T) {
	withToken := FromQueryParams(url.Values{"token": {"a"}, "auth_token": {"b"}, "client_id": {"c"}, "expiry": {"5"}, "uid": {"u"}})
	assert.Equal(t, "a", withToken.AccessToken)
	assert.Equal(t, TokenTypeBearer, withToken.TokenType)

	fallback := FromQueryParams(url.Values{"auth_token": {"b"}})
	assert.Equal(t, "b", fallback.AccessToken)
	assert.False(t, IsComplete(fallback))
}

func TestOAuth2Token(t *testing.T) {
	tok := completeSet(2000000000).OAuth2Token()
	assert.Equal(t, "token", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, time.Unix(2000000000, 0), tok.Expiry)
	assert.Equal(t, "client", tok.Extra("client"))
	assert.Equal(t, "alice@example.com", tok.Extra("uid"))
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewStore(storage.NewMemory())
	c := completeSet(2000000000)

	require.NoError(t, store.Save(c, ""))
	assert.Equal(t, c, store.Load())
	assert.Equal(t, "", store.LoadUserType())

	require.NoError(t, store.Save(c, "ADMIN"))
	assert.Equal(t, "ADMIN", store.LoadUserType())
}

func TestStore_Clear(t *testing.T) {
	backend := storage.NewMemory()
	store := NewStore(backend)
	require.NoError(t, store.Save(completeSet(1), "ADMIN"))

	require.NoError(t, store.Clear())
	for _, key := range []string{KeyAccessToken, KeyClient, KeyExpiry, KeyTokenType, KeyUID, KeyUserType} {
		_, ok := backend.Get(key)
		assert.False(t, ok, key)
	}
	assert.Equal(t, Set{}, store.Load())
}

func TestStore_NoopBackend(t *testing.T) {
	store := NewStore(nil)
	require.NoError(t, store.Save(completeSet(1), "ADMIN"))
	assert.Equal(t, Set{}, store.Load())
	assert.NoError(t, store.Clear())
}
