package config

// Override is a partial Options. A nil field leaves the base value alone; a
// set field replaces it, even when it holds false or an empty string. Maps
// and slices are set when non-nil, so an empty map clears the base map.
//
// YAML keys and environment variables match those of Options.
type Override struct {
	APIPath *string `yaml:"apiPath" env:"TOKENAUTH_API_PATH"`
	APIBase *string `yaml:"apiBase" env:"TOKENAUTH_API_BASE"`

	SignInPath                *string `yaml:"signInPath" env:"TOKENAUTH_SIGN_IN_PATH"`
	SignInRedirect            *string `yaml:"signInRedirect" env:"TOKENAUTH_SIGN_IN_REDIRECT"`
	SignInStoredURLStorageKey *string `yaml:"signInStoredUrlStorageKey" env:"TOKENAUTH_SIGN_IN_STORED_URL_STORAGE_KEY"`

	SignOutPath           *string `yaml:"signOutPath" env:"TOKENAUTH_SIGN_OUT_PATH"`
	ValidateTokenPath     *string `yaml:"validateTokenPath" env:"TOKENAUTH_VALIDATE_TOKEN_PATH"`
	SignOutFailedValidate *bool   `yaml:"signOutFailedValidate" env:"TOKENAUTH_SIGN_OUT_FAILED_VALIDATE"`

	RegisterAccountPath     *string `yaml:"registerAccountPath" env:"TOKENAUTH_REGISTER_ACCOUNT_PATH"`
	DeleteAccountPath       *string `yaml:"deleteAccountPath" env:"TOKENAUTH_DELETE_ACCOUNT_PATH"`
	RegisterAccountCallback *string `yaml:"registerAccountCallback" env:"TOKENAUTH_REGISTER_ACCOUNT_CALLBACK"`

	UpdatePasswordPath    *string `yaml:"updatePasswordPath" env:"TOKENAUTH_UPDATE_PASSWORD_PATH"`
	ResetPasswordPath     *string `yaml:"resetPasswordPath" env:"TOKENAUTH_RESET_PASSWORD_PATH"`
	ResetPasswordCallback *string `yaml:"resetPasswordCallback" env:"TOKENAUTH_RESET_PASSWORD_CALLBACK"`

	UserTypes  []UserType `yaml:"userTypes"`
	LoginField *string    `yaml:"loginField" env:"TOKENAUTH_LOGIN_FIELD"`

	OAuthBase             *string           `yaml:"oAuthBase" env:"TOKENAUTH_OAUTH_BASE"`
	OAuthPaths            map[string]string `yaml:"oAuthPaths" env:"TOKENAUTH_OAUTH_PATHS" envKeyValSeparator:":"`
	OAuthCallbackPath     *string           `yaml:"oAuthCallbackPath" env:"TOKENAUTH_OAUTH_CALLBACK_PATH"`
	OAuthWindowType       *WindowType       `yaml:"oAuthWindowType" env:"TOKENAUTH_OAUTH_WINDOW_TYPE"`
	OAuthWindowOptions    map[string]string `yaml:"oAuthWindowOptions" env:"TOKENAUTH_OAUTH_WINDOW_OPTIONS" envKeyValSeparator:":"`
	OAuthBrowserCallbacks map[string]string `yaml:"oAuthBrowserCallbacks" env:"TOKENAUTH_OAUTH_BROWSER_CALLBACKS" envKeyValSeparator:":"`
}

// Ptr returns a pointer to v, for building an Override literal.
func Ptr[T any](v T) *T {
	return &v
}

// OverrideOf returns an Override setting every non-zero field of o.
func OverrideOf(o Options) Override {
	var ov Override
	setNonZero(&ov.APIPath, o.APIPath)
	setNonZero(&ov.APIBase, o.APIBase)
	setNonZero(&ov.SignInPath, o.SignInPath)
	setNonZero(&ov.SignInRedirect, o.SignInRedirect)
	setNonZero(&ov.SignInStoredURLStorageKey, o.SignInStoredURLStorageKey)
	setNonZero(&ov.SignOutPath, o.SignOutPath)
	setNonZero(&ov.ValidateTokenPath, o.ValidateTokenPath)
	setNonZero(&ov.SignOutFailedValidate, o.SignOutFailedValidate)
	setNonZero(&ov.RegisterAccountPath, o.RegisterAccountPath)
	setNonZero(&ov.DeleteAccountPath, o.DeleteAccountPath)
	setNonZero(&ov.RegisterAccountCallback, o.RegisterAccountCallback)
	setNonZero(&ov.UpdatePasswordPath, o.UpdatePasswordPath)
	setNonZero(&ov.ResetPasswordPath, o.ResetPasswordPath)
	setNonZero(&ov.ResetPasswordCallback, o.ResetPasswordCallback)
	ov.UserTypes = o.UserTypes
	setNonZero(&ov.LoginField, o.LoginField)
	setNonZero(&ov.OAuthBase, o.OAuthBase)
	ov.OAuthPaths = o.OAuthPaths
	setNonZero(&ov.OAuthCallbackPath, o.OAuthCallbackPath)
	setNonZero(&ov.OAuthWindowType, o.OAuthWindowType)
	ov.OAuthWindowOptions = o.OAuthWindowOptions
	ov.OAuthBrowserCallbacks = o.OAuthBrowserCallbacks
	return ov
}

// Merge returns base with every set field of override applied on top.
// Maps and slices are replaced wholesale, never merged key by key. Neither
// argument is modified.
func Merge(base Options, override Override) Options {
	out := base
	out.OAuthPaths = cloneMap(base.OAuthPaths)
	out.OAuthWindowOptions = cloneMap(base.OAuthWindowOptions)
	out.OAuthBrowserCallbacks = cloneMap(base.OAuthBrowserCallbacks)
	out.UserTypes = cloneUserTypes(base.UserTypes)

	apply(&out.APIPath, override.APIPath)
	apply(&out.APIBase, override.APIBase)
	apply(&out.SignInPath, override.SignInPath)
	apply(&out.SignInRedirect, override.SignInRedirect)
	apply(&out.SignInStoredURLStorageKey, override.SignInStoredURLStorageKey)
	apply(&out.SignOutPath, override.SignOutPath)
	apply(&out.ValidateTokenPath, override.ValidateTokenPath)
	apply(&out.SignOutFailedValidate, override.SignOutFailedValidate)
	apply(&out.RegisterAccountPath, override.RegisterAccountPath)
	apply(&out.DeleteAccountPath, override.DeleteAccountPath)
	apply(&out.RegisterAccountCallback, override.RegisterAccountCallback)
	apply(&out.UpdatePasswordPath, override.UpdatePasswordPath)
	apply(&out.ResetPasswordPath, override.ResetPasswordPath)
	apply(&out.ResetPasswordCallback, override.ResetPasswordCallback)
	if override.UserTypes != nil {
		out.UserTypes = cloneUserTypes(override.UserTypes)
	}
	apply(&out.LoginField, override.LoginField)
	apply(&out.OAuthBase, override.OAuthBase)
	if override.OAuthPaths != nil {
		out.OAuthPaths = cloneMap(override.OAuthPaths)
	}
	apply(&out.OAuthCallbackPath, override.OAuthCallbackPath)
	apply(&out.OAuthWindowType, override.OAuthWindowType)
	if override.OAuthWindowOptions != nil {
		out.OAuthWindowOptions = cloneMap(override.OAuthWindowOptions)
	}
	if override.OAuthBrowserCallbacks != nil {
		out.OAuthBrowserCallbacks = cloneMap(override.OAuthBrowserCallbacks)
	}

	return out
}

func apply[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setNonZero[T comparable](dst **T, v T) {
	var zero T
	if v != zero {
		*dst = &v
	}
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneUserTypes(types []UserType) []UserType {
	if types == nil {
		return nil
	}
	out := make([]UserType, len(types))
	copy(out, types)
	return out
}
