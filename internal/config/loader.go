package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"tokenauth/internal/platform"
	"tokenauth/pkg/logging"
)

const (
	userConfigDir       = ".config/tokenauth"
	configFileName      = "config.yaml"
	credentialsFileName = "credentials.json"
)

// osUserHomeDir is swapped in tests.
var osUserHomeDir = os.UserHomeDir

// DefaultConfigDir returns ~/.config/tokenauth.
func DefaultConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// DefaultConfigPath returns the default config.yaml location.
func DefaultConfigPath() string {
	dir, err := DefaultConfigDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(dir, configFileName)
}

// DefaultCredentialsPath returns the default location of the credentials file.
func DefaultCredentialsPath() string {
	dir, err := DefaultConfigDir()
	if err != nil {
		return credentialsFileName
	}
	return filepath.Join(dir, credentialsFileName)
}

// Load builds options from the defaults for loc, the YAML file at path (a
// missing file is not an error) and TOKENAUTH_* environment variables, in
// that order of increasing precedence.
func Load(path string, loc platform.Location) (Options, error) {
	opts := Defaults(loc)

	fileOverride, err := readFile(path)
	if err != nil {
		return Options{}, err
	}
	opts = Merge(opts, fileOverride)

	var envOverride Override
	if err := env.Parse(&envOverride); err != nil {
		return Options{}, &ConfigurationError{
			Field:   "environment",
			Message: fmt.Sprintf("parse env: %v", err),
			Source:  "env",
			Err:     err,
		}
	}
	setEmptyEnv(&envOverride)
	opts = Merge(opts, envOverride)

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func readFile(path string) (Override, error) {
	var opts Override
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config file found at %s, using defaults", path)
			return opts, nil
		}
		return opts, fmt.Errorf("error reading config from %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Override{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	return opts, nil
}

// setEmptyEnv marks variables that are present but empty as set, so they
// clear the value below them. env.Parse skips empty values.
func setEmptyEnv(o *Override) {
	v := reflect.ValueOf(o).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key, _, _ := strings.Cut(t.Field(i).Tag.Get("env"), ",")
		if key == "" {
			continue
		}
		if value, ok := os.LookupEnv(key); !ok || value != "" {
			continue
		}

		field := v.Field(i)
		switch field.Kind() {
		case reflect.Pointer:
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
		case reflect.Map:
			if field.IsNil() {
				field.Set(reflect.MakeMap(field.Type()))
			}
		}
	}
}
