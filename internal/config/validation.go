package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate checks options that would otherwise only fail at the point of use.
func (o Options) Validate() error {
	var errs []error

	if o.OAuthWindowType != "" && !o.OAuthWindowType.IsValid() {
		errs = append(errs, NewUnsupportedWindowTypeError(o.OAuthWindowType))
	}

	if o.APIBase != "" {
		if _, err := regexp.Compile(o.APIBase); err != nil {
			errs = append(errs, &ConfigurationError{
				Field:   "apiBase",
				Message: fmt.Sprintf("apiBase is not a valid pattern: %v", err),
				Err:     err,
			})
		}
	}

	seen := make(map[string]bool, len(o.UserTypes))
	for i, ut := range o.UserTypes {
		if ut.Name == "" {
			errs = append(errs, &ConfigurationError{
				Field:   fmt.Sprintf("userTypes[%d].name", i),
				Message: "user type name is required",
			})
			continue
		}
		if seen[ut.Name] {
			errs = append(errs, &ConfigurationError{
				Field:   fmt.Sprintf("userTypes[%d].name", i),
				Message: fmt.Sprintf("duplicate user type %q", ut.Name),
			})
		}
		seen[ut.Name] = true
	}

	return errors.Join(errs...)
}
