package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tokenauth/internal/auth"
	"tokenauth/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates the command needs a session and none is valid.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the OAuth handshake failed.
	ExitCodeAuthFailed = 3
)

// Global flags
var (
	configPath  string
	storageKind string
	storagePath string
	redisURL    string
	logLevel    string
	quiet       bool
)

// rootCmd represents the base command for the tokenauth application.
var rootCmd = &cobra.Command{
	Use:   "tokenauth",
	Short: "Sign in to a token-authenticated API and manage the session",
	Long: `tokenauth signs in to an API that issues rotating access tokens in
response headers, keeps the resulting session on disk (or in Redis), and
sends authenticated requests with it.

Credentials are refreshed from every API response; a token is only
replaced by one that expires no earlier.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
		return nil
	},
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a semantic exit code on failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "tokenauth version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// loginFailedError marks errors of the OAuth handshake.
type loginFailedError struct {
	provider string
	err      error
}

func (e *loginFailedError) Error() string {
	return fmt.Sprintf("login with %s failed: %v", e.provider, e.err)
}

func (e *loginFailedError) Unwrap() error {
	return e.err
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	if errors.Is(err, auth.ErrNotSignedIn) || auth.IsUnauthorized(err) {
		return ExitCodeAuthRequired
	}

	var loginFailed *loginFailedError
	if errors.As(err, &loginFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/tokenauth/config.yaml)")
	flags.StringVar(&storageKind, "storage", storageFile, "session storage: file, memory or redis")
	flags.StringVar(&storagePath, "storage-path", "", "credentials file (default is $HOME/.config/tokenauth/credentials.json)")
	flags.StringVar(&redisURL, "redis-url", "", "Redis URL for --storage redis")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	rootCmd.AddCommand(newVersionCmd())
}
