package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"tokenauth/internal/config"
	"tokenauth/internal/credentials"
	"tokenauth/internal/interceptor"
	"tokenauth/internal/platform"
	"tokenauth/internal/state"
	"tokenauth/internal/storage"
)

// Config configures a Manager.
type Config struct {
	// Options is the merged client configuration.
	Options config.Options

	// Storage persists the session. Nil disables persistence.
	Storage storage.Storage

	// Params, when set, is consumed at construction for tokens appended to
	// an OAuth redirect.
	Params platform.ParamSource

	// Router, when set, is used by CanActivate to redirect to sign-in.
	Router platform.Router

	// HTTPClient supplies the timeout and base transport of API requests.
	// http.DefaultClient when nil.
	HTTPClient *http.Client

	// WatchPath, when set, is watched for changes made by other processes;
	// each change reloads credentials from storage.
	WatchPath string

	Logger *slog.Logger
}

// Manager owns the session: it decides which credential set is current,
// persists it, and issues the token API requests.
type Manager struct {
	// mu makes the acceptance check and the write of Install one step.
	mu sync.Mutex

	optsMu sync.RWMutex
	opts   config.Options

	store  *credentials.Store
	state  *state.State
	params platform.ParamSource
	router platform.Router
	client *http.Client
	logger *slog.Logger

	validate singleflight.Group

	watcher *storage.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager and restores the session: the stored user
// type, then stored credentials, then credentials in the query parameters.
// The token is not validated against the server.
func NewManager(cfg Config) (*Manager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("subsystem", "Auth")
	}

	base := cfg.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		opts:   cfg.Options,
		store:  credentials.NewStore(cfg.Storage),
		state:  state.New(),
		params: cfg.Params,
		router: cfg.Router,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	m.client = &http.Client{
		Transport: &interceptor.Transport{
			Augmenter: interceptor.NewAugmenter(m),
			Base:      base.Transport,
		},
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       base.Timeout,
	}

	if cfg.Options.APIBase == "" {
		logger.Warn("apiBase is not set; request URLs are relative and every request carries credentials")
	}

	m.bootstrap()

	if cfg.WatchPath != "" {
		m.watcher = storage.NewWatcher(storage.WatcherConfig{
			Path: cfg.WatchPath,
			OnChange: func() {
				if m.LoadFromStorage() {
					m.logger.Debug("Reloaded credentials changed by another process", "path", cfg.WatchPath)
				}
			},
		})
		if err := m.watcher.Start(); err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", cfg.WatchPath, err)
		}
	}

	return m, nil
}

func (m *Manager) bootstrap() {
	if name := m.store.LoadUserType(); name != "" {
		m.state.UserType.Next(m.UserTypeByName(name))
	}

	m.LoadFromStorage()

	if m.params != nil {
		m.LoadFromQueryParams(m.ctx)
	}
}

// Close stops the storage watcher and query-parameter consumers.
func (m *Manager) Close() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
	m.cancel()
	m.wg.Wait()
}

// State exposes the observable session.
func (m *Manager) State() *state.State {
	return m.state
}

// HTTPClient returns a client whose requests carry the current credentials
// and whose responses refresh them.
func (m *Manager) HTTPClient() *http.Client {
	return m.client
}

// Options returns the active configuration.
func (m *Manager) Options() config.Options {
	m.optsMu.RLock()
	defer m.optsMu.RUnlock()
	return m.opts
}

// SetOptions merges override into the active configuration.
func (m *Manager) SetOptions(override config.Override) error {
	m.optsMu.Lock()
	defer m.optsMu.Unlock()

	merged := config.Merge(m.opts, override)
	if err := merged.Validate(); err != nil {
		return err
	}
	m.opts = merged
	return nil
}

// APIBase returns the configured API base.
func (m *Manager) APIBase() string {
	return m.Options().APIBase
}

// UserTypeByName returns the configured user type with the given name, or nil.
func (m *Manager) UserTypeByName(name string) *config.UserType {
	return m.Options().UserTypeByName(name)
}

// UserSignedIn reports whether a credential set is held.
func (m *Manager) UserSignedIn() bool {
	return m.state.Credentials.Current() != nil
}

// CurrentUserType returns the name of the active user type, or "".
func (m *Manager) CurrentUserType() string {
	if ut := m.state.UserType.Current(); ut != nil {
		return ut.Name
	}
	return ""
}

// CurrentAuthData returns a copy of the active credential set, or nil.
func (m *Manager) CurrentAuthData() *credentials.Set {
	current := m.state.Credentials.Current()
	if current == nil {
		return nil
	}
	c := *current
	return &c
}

// CurrentUserData returns the profile last returned by the API, or nil.
func (m *Manager) CurrentUserData() json.RawMessage {
	return m.state.Profile.Current()
}

// CanActivate guards a route. When signed out it remembers rawURL under the
// configured storage key and redirects to the sign-in route.
func (m *Manager) CanActivate(rawURL string) bool {
	if m.UserSignedIn() {
		return true
	}

	opts := m.Options()
	if opts.SignInStoredURLStorageKey != "" {
		if err := m.store.Storage().Set(opts.SignInStoredURLStorageKey, rawURL); err != nil {
			m.logger.Warn("Failed to remember requested URL", "error", err)
		}
	}
	if m.router != nil && opts.SignInRedirect != "" {
		if err := m.router.Navigate(opts.SignInRedirect); err != nil {
			m.logger.Warn("Failed to redirect to sign-in", "route", opts.SignInRedirect, "error", err)
		}
	}
	return false
}

// TakeStoredURL returns the URL CanActivate remembered and forgets it.
// It returns "" when none is stored or no storage key is configured.
func (m *Manager) TakeStoredURL() string {
	key := m.Options().SignInStoredURLStorageKey
	if key == "" {
		return ""
	}
	backend := m.store.Storage()
	stored, ok := backend.Get(key)
	if !ok {
		return ""
	}
	if err := backend.Remove(key); err != nil {
		m.logger.Warn("Failed to forget requested URL", "error", err)
	}
	return stored
}

// ErrNotSignedIn is returned by Token when no credential set is held.
var ErrNotSignedIn = errors.New("not signed in")
