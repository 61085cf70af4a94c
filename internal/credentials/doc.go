// Package credentials defines the credential set exchanged with a
// devise_token_auth style API, the rules deciding which set may be held, and
// the store that persists it.
//
// A set travels in five headers (access-token, client, expiry, token-type,
// uid) and is persisted under six storage keys (the five fields plus
// userType). Expiry is epoch seconds and compared numerically.
package credentials
