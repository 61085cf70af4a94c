package config

import (
	"tokenauth/internal/platform"
)

const (
	DefaultSignInPath          = "auth/sign_in"
	DefaultSignOutPath         = "auth/sign_out"
	DefaultValidateTokenPath   = "auth/validate_token"
	DefaultRegisterAccountPath = "auth"
	DefaultDeleteAccountPath   = "auth"
	DefaultUpdatePasswordPath  = "auth"
	DefaultResetPasswordPath   = "auth/password"
	DefaultLoginField          = "email"
	DefaultOAuthCallbackPath   = "oauth_callback"
)

// Defaults returns the fixed default option table. Callback URLs default to
// the current location and the OAuth base to its origin.
func Defaults(loc platform.Location) Options {
	return Options{
		SignInPath:              DefaultSignInPath,
		SignOutPath:             DefaultSignOutPath,
		ValidateTokenPath:       DefaultValidateTokenPath,
		RegisterAccountPath:     DefaultRegisterAccountPath,
		DeleteAccountPath:       DefaultDeleteAccountPath,
		RegisterAccountCallback: loc.Href,
		UpdatePasswordPath:      DefaultUpdatePasswordPath,
		ResetPasswordPath:       DefaultResetPasswordPath,
		ResetPasswordCallback:   loc.Href,
		LoginField:              DefaultLoginField,
		OAuthBase:               loc.Origin,
		OAuthPaths: map[string]string{
			"github": "auth/github",
		},
		OAuthCallbackPath: DefaultOAuthCallbackPath,
		OAuthWindowType:   WindowTypeNewWindow,
		OAuthBrowserCallbacks: map[string]string{
			"github": "auth/github/callback",
		},
	}
}
