// Package logging provides the subsystem-tagged logging used across tokenauth.
//
// It is a thin layer over log/slog: InitForCLI installs a text handler as the
// process default, and the package helpers attach a "subsystem" attribute to
// every record so output can be filtered per component.
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Config", "Loaded configuration from %s", path)
//	logging.Error("Storage", err, "Failed to persist credentials")
//
// Components that keep their own *slog.Logger obtain one with Logger:
//
//	logger := logging.Logger("Handshake")
//	logger.Debug("popup closed", "flow_id", id)
//
// Credential values are never passed to the logger; callers log uid, client
// id and expiry only.
package logging
