// Package auth implements the token lifecycle of a client talking to a
// devise_token_auth style API.
//
// A Manager restores the session at construction, decides which credential
// set is current (a complete set replaces the current one only if it
// expires no earlier), persists it, and issues the sign-in, registration,
// validation, password and sign-out requests. Every request goes through
// HTTPClient, whose transport attaches the current credentials and installs
// the rotated ones returned in response headers.
//
//	m, err := auth.NewManager(auth.Config{Options: opts, Storage: store})
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	if _, err := m.SignIn(ctx, auth.SignInData{Login: "me@example.com", Password: pw}, nil); err != nil {
//	    return err
//	}
package auth
