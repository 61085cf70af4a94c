package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tokenauth/internal/auth"
	"tokenauth/internal/config"
	"tokenauth/internal/platform"
	"tokenauth/internal/storage"
	"tokenauth/pkg/logging"
)

// Storage backends selectable with --storage.
const (
	storageFile   = "file"
	storageMemory = "memory"
	storageRedis  = "redis"
)

var callbackPort int

func init() {
	rootCmd.PersistentFlags().IntVar(&callbackPort, "callback-port", platform.DefaultCallbackPort,
		"local port receiving OAuth redirects; also the origin of callback URLs")
}

// session bundles the manager a command works with and the resources it holds.
type session struct {
	manager *auth.Manager
	router  *signInRoute
	// desktop is set for sessions that run an OAuth handshake.
	desktop *platform.Desktop
	closers []func()
}

// sessionOptions selects what a command needs beyond the stored session.
type sessionOptions struct {
	// watch reloads credentials when another process rewrites the file.
	watch bool
	// desktop starts the OAuth callback server and consumes its redirects.
	desktop bool
}

// desktopLocation is the page the CLI pretends to run on: the local
// callback server.
func desktopLocation() platform.Location {
	origin := fmt.Sprintf("http://localhost:%d", callbackPort)
	return platform.Location{Href: origin + "/", Origin: origin}
}

// loadOptions loads the configuration file named by --config.
func loadOptions() (config.Options, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path, desktopLocation())
}

// openStorage opens the backend selected by --storage. The returned path
// is the file to watch, empty for non-file backends.
func openStorage(ctx context.Context) (storage.Storage, string, func(), error) {
	noop := func() {}

	switch storageKind {
	case storageFile:
		path := storagePath
		if path == "" {
			path = config.DefaultCredentialsPath()
		}
		f, err := storage.NewFile(path)
		if err != nil {
			return nil, "", noop, err
		}
		return f, path, noop, nil

	case storageMemory:
		return storage.NewMemory(), "", noop, nil

	case storageRedis:
		if redisURL == "" {
			return nil, "", noop, fmt.Errorf("--redis-url is required with --storage %s", storageRedis)
		}
		r, err := storage.OpenRedis(ctx, redisURL)
		if err != nil {
			return nil, "", noop, err
		}
		return r, "", func() {
			if err := r.Close(); err != nil {
				logging.Debug("CLI", "Failed to close Redis client: %v", err)
			}
		}, nil

	default:
		return nil, "", noop, fmt.Errorf("unknown storage %q: use %s, %s or %s",
			storageKind, storageFile, storageMemory, storageRedis)
	}
}

// newSession restores the stored session.
func newSession(ctx context.Context, so sessionOptions) (*session, error) {
	opts, err := loadOptions()
	if err != nil {
		return nil, err
	}

	backend, path, closeStorage, err := openStorage(ctx)
	if err != nil {
		return nil, err
	}
	sess := &session{router: &signInRoute{}, closers: []func(){closeStorage}}

	cfg := auth.Config{
		Options: opts,
		Storage: backend,
		Router:  sess.router,
		Logger:  logging.Logger("Auth"),
	}
	if so.watch {
		cfg.WatchPath = path
	}

	if so.desktop {
		sess.desktop = platform.NewDesktop(platform.DesktopConfig{
			CallbackPort: callbackPort,
			CallbackPath: opts.OAuthCallbackPath,
		})
		if err := sess.desktop.Start(ctx); err != nil {
			sess.Close()
			return nil, err
		}
		sess.closers = append(sess.closers, sess.desktop.Stop)
		cfg.Params = sess.desktop
	}

	manager, err := auth.NewManager(cfg)
	if err != nil {
		sess.Close()
		return nil, err
	}
	sess.manager = manager
	sess.closers = append(sess.closers, manager.Close)

	return sess, nil
}

// Close releases the session's resources in reverse order of acquisition.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// requireSignedIn guards cmd. When signed out the command line is
// remembered under signInStoredUrlStorageKey and the error names the
// configured sign-in command.
func (s *session) requireSignedIn(cmd *cobra.Command) error {
	if s.manager.CanActivate(cmd.CommandPath()) {
		return nil
	}
	hint := "'tokenauth login' or 'tokenauth sign-in'"
	if s.router.route != "" {
		hint = fmt.Sprintf("'tokenauth %s'", s.router.route)
	}
	return fmt.Errorf("%w: run %s first", auth.ErrNotSignedIn, hint)
}

// resumeHint prints the command a signed-out invocation was redirected from.
func (s *session) resumeHint(out io.Writer) {
	if next := s.manager.TakeStoredURL(); next != "" {
		printf(out, "Continue with: %s\n", next)
	}
}

// signInRoute records where the manager redirects signed-out commands.
type signInRoute struct {
	route string
}

func (r *signInRoute) Navigate(route string) error {
	r.route = route
	return nil
}

// printf prints progress output unless --quiet is set.
func printf(w io.Writer, format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(w, format, args...)
	}
}
