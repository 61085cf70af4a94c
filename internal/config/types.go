package config

// WindowType selects how an OAuth handshake is presented to the user.
type WindowType string

const (
	// WindowTypeNewWindow opens the provider in a popup and polls it for credentials.
	WindowTypeNewWindow WindowType = "newWindow"

	// WindowTypeInAppBrowser opens the provider in an embedded browser view.
	// Degrades to WindowTypeNewWindow when no embedded browser is available.
	WindowTypeInAppBrowser WindowType = "inAppBrowser"

	// WindowTypeSameWindow navigates the current page to the provider.
	WindowTypeSameWindow WindowType = "sameWindow"
)

// IsValid reports whether the window type is one of the supported strategies.
func (w WindowType) IsValid() bool {
	switch w {
	case WindowTypeNewWindow, WindowTypeInAppBrowser, WindowTypeSameWindow:
		return true
	default:
		return false
	}
}

// UserType is a named partition of the API's user namespace. Path is the URL
// segment inserted between the API path and the operation path.
type UserType struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`

	// Extra holds any additional keys from configuration, passed through untouched.
	Extra map[string]any `yaml:",inline"`
}

// Options is the complete client configuration. It is built once by merging
// Defaults with caller overrides and treated as immutable afterwards.
//
// Field names follow the option names of the token API contract; YAML keys
// use the same camelCase spelling.
type Options struct {
	APIPath string `yaml:"apiPath,omitempty"`
	// APIBase is both the URL prefix of every request and, compiled as a
	// regular expression, the rule deciding which requests carry auth headers.
	APIBase string `yaml:"apiBase,omitempty"`

	SignInPath                string `yaml:"signInPath,omitempty"`
	SignInRedirect            string `yaml:"signInRedirect,omitempty"`
	SignInStoredURLStorageKey string `yaml:"signInStoredUrlStorageKey,omitempty"`

	SignOutPath           string `yaml:"signOutPath,omitempty"`
	ValidateTokenPath     string `yaml:"validateTokenPath,omitempty"`
	SignOutFailedValidate bool   `yaml:"signOutFailedValidate,omitempty"`

	RegisterAccountPath     string `yaml:"registerAccountPath,omitempty"`
	DeleteAccountPath       string `yaml:"deleteAccountPath,omitempty"`
	RegisterAccountCallback string `yaml:"registerAccountCallback,omitempty"`

	UpdatePasswordPath    string `yaml:"updatePasswordPath,omitempty"`
	ResetPasswordPath     string `yaml:"resetPasswordPath,omitempty"`
	ResetPasswordCallback string `yaml:"resetPasswordCallback,omitempty"`

	UserTypes  []UserType `yaml:"userTypes,omitempty"`
	LoginField string     `yaml:"loginField,omitempty"`

	OAuthBase             string            `yaml:"oAuthBase,omitempty"`
	OAuthPaths            map[string]string `yaml:"oAuthPaths,omitempty"`
	OAuthCallbackPath     string            `yaml:"oAuthCallbackPath,omitempty"`
	OAuthWindowType       WindowType        `yaml:"oAuthWindowType,omitempty"`
	OAuthWindowOptions    map[string]string `yaml:"oAuthWindowOptions,omitempty"`
	OAuthBrowserCallbacks map[string]string `yaml:"oAuthBrowserCallbacks,omitempty"`
}

// UserTypeByName returns the configured user type with the given name, or nil.
func (o Options) UserTypeByName(name string) *UserType {
	if name == "" {
		return nil
	}
	for i := range o.UserTypes {
		if o.UserTypes[i].Name == name {
			ut := o.UserTypes[i]
			return &ut
		}
	}
	return nil
}
