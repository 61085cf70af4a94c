package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"tokenauth/internal/auth"
)

func TestSetVersion(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	testVersion := "1.2.3-test"
	SetVersion(testVersion)

	if GetVersion() != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, GetVersion())
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "tokenauth" {
		t.Errorf("Expected Use to be 'tokenauth', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}

	for _, name := range []string{"login", "sign-in", "logout", "status", "validate", "request", "register", "delete-account", "password", "version"} {
		if _, _, err := rootCmd.Find([]string{name}); err != nil {
			t.Errorf("Expected subcommand %q to be registered: %v", name, err)
		}
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "tokenauth version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	if err := testCmd.Execute(); err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}

	if !strings.Contains(buf.String(), "tokenauth version 1.0.0") {
		t.Errorf("Expected version output, got %q", buf.String())
	}
}

func TestVersionCommandExecution(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()
	rootCmd.Version = "1.2.3-test"

	versionCmd := newVersionCmd()
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	if got, want := buf.String(), "tokenauth 1.2.3-test\n"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", errors.New("boom"), ExitCodeError},
		{"not signed in", fmt.Errorf("wrapped: %w", auth.ErrNotSignedIn), ExitCodeAuthRequired},
		{"unauthorized", &auth.StatusError{StatusCode: 401}, ExitCodeAuthRequired},
		{"forbidden", &auth.StatusError{StatusCode: 403}, ExitCodeError},
		{"login failed", &loginFailedError{provider: "github", err: errors.New("access_denied")}, ExitCodeAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getExitCode(tt.err); got != tt.want {
				t.Errorf("getExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
