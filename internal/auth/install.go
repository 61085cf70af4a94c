package auth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"tokenauth/internal/credentials"
)

// Install is the single write path of the session. A complete candidate
// that expires no earlier than the current set is published and written to
// storage together with the active user type. Anything else is dropped
// silently. Reports whether the candidate was installed.
//
// Observers of the credentials slot run while the install lock is held and
// must not call Install themselves.
func (m *Manager) Install(candidate credentials.Set) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !credentials.IsAcceptable(candidate, m.state.Credentials.Current()) {
		return false
	}

	c := candidate
	m.state.Credentials.Next(&c)

	if err := m.store.Save(c, m.CurrentUserType()); err != nil {
		m.logger.Warn("Failed to persist credentials", "uid", c.UID, "error", err)
	}
	return true
}

// LoadFromStorage publishes the stored credential set if it is acceptable.
// Nothing is written back.
func (m *Manager) LoadFromStorage() bool {
	candidate := m.store.Load()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !credentials.IsAcceptable(candidate, m.state.Credentials.Current()) {
		return false
	}
	m.state.Credentials.Next(&candidate)
	return true
}

// LoadFromQueryParams consumes the parameter source in the background,
// installing the credentials carried by each emission. It stops when ctx
// ends, the source closes, or the manager is closed. Without a parameter
// source it does nothing.
func (m *Manager) LoadFromQueryParams(ctx context.Context) {
	if m.params == nil {
		return
	}

	ch := m.params.QueryParams(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.ctx.Done():
				return
			case values, ok := <-ch:
				if !ok {
					return
				}
				if m.Install(credentials.FromQueryParams(values)) {
					m.logger.Debug("Installed credentials from query parameters")
				}
			}
		}
	}()
}

// ExtractFromResponseHeaders offers the auth headers of an API response.
func (m *Manager) ExtractFromResponseHeaders(h http.Header) bool {
	return m.Install(credentials.FromHeader(h))
}

// ExtractFromPostMessage offers the payload delivered by an OAuth window.
func (m *Manager) ExtractFromPostMessage(data map[string]string) bool {
	return m.Install(credentials.FromPostMessage(data))
}

// Token implements oauth2.TokenSource over the current session, reloading
// from storage first.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.LoadFromStorage()

	current := m.state.Credentials.Current()
	if current == nil {
		return nil, ErrNotSignedIn
	}
	return current.OAuth2Token(), nil
}

var _ oauth2.TokenSource = (*Manager)(nil)
