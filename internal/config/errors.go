package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedWindowType is wrapped by errors for an unknown oAuthWindowType.
	ErrUnsupportedWindowType = errors.New("unsupported oAuthWindowType")

	// ErrMissingBrowserCallback is wrapped by errors raised when the
	// inAppBrowser strategy has no callback configured for a provider.
	ErrMissingBrowserCallback = errors.New("missing oAuthBrowserCallbacks entry")
)

// ConfigurationError describes a misconfiguration detected while loading
// options or at the point an option is used.
type ConfigurationError struct {
	Field       string   `json:"field"`       // Option name, as spelled in config.yaml
	Message     string   `json:"message"`     // Human-readable error message
	Source      string   `json:"source"`      // "file", "env" or "runtime"
	Suggestions []string `json:"suggestions"` // Actionable suggestions to fix the error
	Err         error    `json:"-"`
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	if ce.Source != "" {
		return fmt.Sprintf("[%s] %s: %s", ce.Source, ce.Field, ce.Message)
	}
	return fmt.Sprintf("%s: %s", ce.Field, ce.Message)
}

// Unwrap exposes the sentinel so callers can match with errors.Is.
func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// DetailedError returns a detailed error message with all context
func (ce *ConfigurationError) DetailedError() string {
	parts := []string{fmt.Sprintf("Configuration Error: %s", ce.Field)}
	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}

// NewUnsupportedWindowTypeError reports a window type outside the supported set.
func NewUnsupportedWindowTypeError(windowType WindowType) *ConfigurationError {
	return &ConfigurationError{
		Field:   "oAuthWindowType",
		Message: fmt.Sprintf("Unsupported oAuthWindowType %q", windowType),
		Source:  "runtime",
		Suggestions: []string{
			fmt.Sprintf("use one of %q, %q or %q", WindowTypeNewWindow, WindowTypeInAppBrowser, WindowTypeSameWindow),
		},
		Err: ErrUnsupportedWindowType,
	}
}

// NewMissingBrowserCallbackError reports a provider with no inAppBrowser callback.
func NewMissingBrowserCallbackError(provider string) *ConfigurationError {
	return &ConfigurationError{
		Field: "oAuthBrowserCallbacks",
		Message: fmt.Sprintf("To login with oAuth provider %s using inAppBrowser the callback (in oAuthBrowserCallbacks) is required.",
			provider),
		Source: "runtime",
		Suggestions: []string{
			fmt.Sprintf("add oAuthBrowserCallbacks.%s to the configuration", provider),
		},
		Err: ErrMissingBrowserCallback,
	}
}
