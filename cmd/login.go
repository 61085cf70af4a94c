package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"tokenauth/internal/auth"
	"tokenauth/internal/credentials"
	"tokenauth/internal/handshake"
	"tokenauth/internal/platform"
	"tokenauth/pkg/logging"
)

// DefaultLoginTimeout bounds how long login waits for the browser handshake.
const DefaultLoginTimeout = 5 * time.Minute

// Login-specific flags
var (
	loginProvider string
	loginTimeout  time.Duration
)

// Sign-in-specific flags
var (
	signInLogin    string
	signInPassword string
	signInUserType string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with an OAuth provider",
	Long: `Sign in with an OAuth provider through your browser.

The provider page opens in the system browser. When it redirects back to
the local callback server the credentials are stored and the command exits.

Examples:
  tokenauth login                        # Sign in with GitHub
  tokenauth login --provider google      # Sign in with another provider
  tokenauth login --timeout 30s`,
	RunE: runLogin,
}

// signInCmd represents the sign-in command
var signInCmd = &cobra.Command{
	Use:   "sign-in",
	Short: "Sign in with login and password",
	Long: `Sign in with a login (by default the email address) and password.

The password is read from standard input when --password is not given.

Examples:
  tokenauth sign-in --login me@example.com
  tokenauth sign-in --login admin@example.com --user-type ADMIN`,
	RunE: runSignIn,
}

func init() {
	loginCmd.Flags().StringVar(&loginProvider, "provider", "github", "OAuth provider")
	loginCmd.Flags().DurationVar(&loginTimeout, "timeout", DefaultLoginTimeout, "how long to wait for the browser sign-in")

	signInCmd.Flags().StringVar(&signInLogin, "login", "", "login (email by default)")
	signInCmd.Flags().StringVar(&signInPassword, "password", "", "password (read from stdin when omitted)")
	signInCmd.Flags().StringVar(&signInUserType, "user-type", "", "configured user type to sign in as")
	_ = signInCmd.MarkFlagRequired("login")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signInCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	// The manager consumes the callback's query parameters on its own; the
	// handshake relays the same credentials as popup messages.
	sess, err := newSession(ctx, sessionOptions{watch: true, desktop: true})
	if err != nil {
		return err
	}
	defer sess.Close()

	coordinator := handshake.New(handshake.Config{
		Session: sess.manager,
		Window:  sess.desktop,
		Logger:  logging.Logger("OAuth"),
	})

	signedIn, stopWatching := watchSignIn(sess.manager)
	defer stopWatching()

	flow, err := coordinator.SignInOAuth(ctx, loginProvider)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var s *spinner.Spinner
	if !quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Writer = cmd.ErrOrStderr()
		s.Suffix = fmt.Sprintf(" Waiting for %s sign-in in your browser...", loginProvider)
		s.Start()
		defer s.Stop()
	}

	var events <-chan handshake.Event
	if flow != nil {
		defer flow.Close()
		events = flow.Events()
	}

	for {
		select {
		case c := <-signedIn:
			if s != nil {
				s.Stop()
			}
			printf(out, "%s Signed in as %s\n", text.FgGreen.Sprint("✓"), c.UID)
			sess.resumeHint(out)
			return nil

		case ev, ok := <-events:
			if !ok {
				events = nil
				if err := flow.Err(); err != nil {
					return &loginFailedError{provider: loginProvider, err: err}
				}
				continue
			}
			if ev.Message == platform.MessageAuthFailure {
				return &loginFailedError{provider: loginProvider, err: authFailure(ev.Data)}
			}

		case <-ctx.Done():
			return &loginFailedError{
				provider: loginProvider,
				err:      fmt.Errorf("no sign-in within %s: %w", loginTimeout, ctx.Err()),
			}
		}
	}
}

// watchSignIn returns a channel receiving the first credential set that
// differs from the one held now, and a func that stops watching.
func watchSignIn(m *auth.Manager) (<-chan credentials.Set, func()) {
	before := m.CurrentAuthData()
	ch := make(chan credentials.Set, 1)

	var once sync.Once
	sub := m.State().Credentials.Subscribe(func(c *credentials.Set) {
		if c == nil || (before != nil && *c == *before) {
			return
		}
		once.Do(func() { ch <- *c })
	})
	return ch, sub.Unsubscribe
}

func authFailure(data map[string]string) error {
	msg := data["error"]
	if desc := data["error_description"]; desc != "" {
		msg += ": " + desc
	}
	if msg == "" {
		msg = "provider reported a failure"
	}
	return errors.New(msg)
}

func runSignIn(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	password := signInPassword
	if password == "" {
		prompter, err := newSecretPrompter(cmd.InOrStdin(), out)
		if err != nil {
			return err
		}
		password, err = prompter.read("Password", "")
		prompter.Close()
		if err != nil {
			return err
		}
	}

	sess, err := newSession(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	defer sess.Close()

	_, err = sess.manager.SignIn(ctx, auth.SignInData{
		Login:    signInLogin,
		Password: password,
		UserType: signInUserType,
	}, nil)
	if err != nil {
		return err
	}

	current := sess.manager.CurrentAuthData()
	if current == nil {
		return fmt.Errorf("sign-in succeeded but the response carried no credentials")
	}
	printf(out, "%s Signed in as %s\n", text.FgGreen.Sprint("✓"), current.UID)
	sess.resumeHint(out)
	return nil
}
