package handshake

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenauth/internal/config"
	"tokenauth/internal/credentials"
	"tokenauth/internal/platform"
)

type fakeSession struct {
	mu        sync.Mutex
	opts      config.Options
	userType  string
	current   *credentials.Set
	delivered []map[string]string
	loads     int
}

func newFakeSession(override config.Options) *fakeSession {
	loc := platform.Location{Href: "http://app.example.com/", Origin: "http://app.example.com"}
	return &fakeSession{opts: config.Merge(config.Defaults(loc), config.OverrideOf(override))}
}

func (s *fakeSession) Options() config.Options { return s.opts }

func (s *fakeSession) CurrentUserType() string { return s.userType }

func (s *fakeSession) UserSignedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *fakeSession) CurrentAuthData() *credentials.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *fakeSession) ExtractFromPostMessage(data map[string]string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, data)
	c := credentials.FromPostMessage(data)
	if !credentials.IsComplete(c) {
		return false
	}
	s.current = &c
	return true
}

func (s *fakeSession) LoadFromQueryParams(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
}

func (s *fakeSession) deliveredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

type fakePopup struct {
	closed atomic.Bool
	pings  atomic.Int32
	err    error
}

func (p *fakePopup) Closed() bool { return p.closed.Load() }

func (p *fakePopup) PostMessage(msg string) error {
	if msg == platform.MessageRequestCredentials {
		p.pings.Add(1)
	}
	return p.err
}

type fakeWindow struct {
	mu        sync.Mutex
	popup     *fakePopup
	openErr   error
	opened    []string
	features  string
	navigated []string
	messages  chan platform.Message
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{popup: &fakePopup{}, messages: make(chan platform.Message, 4)}
}

func (w *fakeWindow) Location() platform.Location {
	return platform.Location{Href: "http://app.example.com/", Origin: "http://app.example.com"}
}

func (w *fakeWindow) Open(rawURL, _, features string) (platform.Popup, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.openErr != nil {
		return nil, w.openErr
	}
	w.opened = append(w.opened, rawURL)
	w.features = features
	return w.popup, nil
}

func (w *fakeWindow) Messages(context.Context) <-chan platform.Message { return w.messages }

func (w *fakeWindow) Navigate(rawURL string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.navigated = append(w.navigated, rawURL)
	return nil
}

type fakeView struct {
	events    chan platform.NavigationEvent
	results   []map[string]string
	scriptErr error
	scripts   []string
	closed    atomic.Bool
	mu        sync.Mutex
}

func (v *fakeView) Events() <-chan platform.NavigationEvent { return v.events }

func (v *fakeView) ExecuteScript(_ context.Context, code string) ([]map[string]string, error) {
	v.mu.Lock()
	v.scripts = append(v.scripts, code)
	v.mu.Unlock()
	return v.results, v.scriptErr
}

func (v *fakeView) Close() error {
	v.closed.Store(true)
	return nil
}

type fakeBrowser struct {
	view    *fakeView
	url     string
	options string
}

func (b *fakeBrowser) Create(rawURL, _, options string) (platform.BrowserView, error) {
	b.url = rawURL
	b.options = options
	return b.view, nil
}

var delivered = map[string]string{
	"auth_token": "t",
	"client_id":  "c",
	"expiry":     "2000000000",
	"uid":        "u",
}

func newCoordinator(session Session, window platform.Window, browser platform.EmbeddedBrowser) *Coordinator {
	return New(Config{
		Session:             session,
		Window:              window,
		Browser:             browser,
		PopupPollInterval:   10 * time.Millisecond,
		BrowserPollInterval: 10 * time.Millisecond,
	})
}

func TestEscapeComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://app.example.com/oauth_callback", "http%3A%2F%2Fapp.example.com%2Foauth_callback"},
		{"a b", "a%20b"},
		{"a+b", "a%2Bb"},
		{"it's (mine)!*", "it's%20(mine)!*"},
		{"-_.~", "-_.~"},
		{"a/b?c=d&e#f", "a%2Fb%3Fc%3Dd%26e%23f"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeComponent(tt.in))
		})
	}
}

func TestAuthorizationURL(t *testing.T) {
	session := newFakeSession(config.Options{OAuthBase: "http://api.example.com"})
	c := newCoordinator(session, newFakeWindow(), nil)

	assert.Equal(t,
		"http://api.example.com/auth/github?omniauth_window_type=newWindow&auth_origin_url=http%3A%2F%2Fapp.example.com%2Foauth_callback",
		c.AuthorizationURL("github", config.WindowTypeNewWindow))

	assert.Equal(t,
		"http://api.example.com//auth/gitlab?omniauth_window_type=sameWindow&auth_origin_url=http%3A%2F%2Fapp.example.com%2Foauth_callback",
		c.AuthorizationURL("gitlab", config.WindowTypeSameWindow),
		"unconfigured providers use /auth/{provider}")

	session.userType = "ADMIN"
	assert.Contains(t, c.AuthorizationURL("github", config.WindowTypeNewWindow), "&resource_class=ADMIN")
}

func TestWindowFeatures(t *testing.T) {
	assert.Equal(t, "closebuttoncaption=Cancel", windowFeatures(nil))
	assert.Equal(t, "closebuttoncaption=Cancel,height=600,width=400",
		windowFeatures(map[string]string{"width": "400", "height": "600"}))
}

func TestSignInOAuth_NewWindow(t *testing.T) {
	session := newFakeSession(config.Options{OAuthWindowOptions: map[string]string{"width": "500"}})
	window := newFakeWindow()
	c := newCoordinator(session, window, nil)

	flow, err := c.SignInOAuth(context.Background(), "github")
	require.NoError(t, err)
	require.NotNil(t, flow)
	defer flow.Close()

	assert.NotEmpty(t, flow.ID())
	require.Len(t, window.opened, 1)
	assert.Contains(t, window.opened[0], "omniauth_window_type=newWindow")
	assert.Equal(t, "closebuttoncaption=Cancel,width=500", window.features)

	require.Eventually(t, func() bool { return window.popup.pings.Load() >= 2 }, time.Second, 5*time.Millisecond,
		"open popup is polled for credentials")

	window.messages <- platform.Message{Message: "unrelated", Data: map[string]string{"auth_token": "x"}}
	window.messages <- platform.Message{Message: platform.MessageDeliverCredentials, Data: delivered}

	select {
	case ev := <-flow.Events():
		assert.Equal(t, platform.MessageDeliverCredentials, ev.Message)
		assert.Equal(t, delivered, ev.Data)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}

	assert.Equal(t, 1, session.deliveredCount(), "only deliverCredentials reaches the session")
	assert.True(t, session.UserSignedIn())
}

func TestSignInOAuth_NewWindowAuthFailureIsRelayed(t *testing.T) {
	session := newFakeSession(config.Options{})
	window := newFakeWindow()
	c := newCoordinator(session, window, nil)

	flow, err := c.SignInOAuth(context.Background(), "github")
	require.NoError(t, err)
	defer flow.Close()

	window.messages <- platform.Message{Message: platform.MessageAuthFailure, Data: map[string]string{"error": "access_denied"}}

	ev := <-flow.Events()
	assert.Equal(t, platform.MessageAuthFailure, ev.Message)
	assert.Equal(t, 0, session.deliveredCount())
}

func TestSignInOAuth_PollerStopsWhenPopupClosed(t *testing.T) {
	session := newFakeSession(config.Options{})
	window := newFakeWindow()
	c := newCoordinator(session, window, nil)

	flow, err := c.SignInOAuth(context.Background(), "github")
	require.NoError(t, err)
	defer flow.Close()

	window.popup.closed.Store(true)
	time.Sleep(30 * time.Millisecond)
	pings := window.popup.pings.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, pings, window.popup.pings.Load())

	select {
	case <-flow.Done():
		t.Fatal("flow ended while the listener is still running")
	default:
	}
}

func TestSignInOAuth_ProbeFailureEndsFlow(t *testing.T) {
	session := newFakeSession(config.Options{})
	window := newFakeWindow()
	window.popup.err = errors.New("window gone")
	c := newCoordinator(session, window, nil)

	flow, err := c.SignInOAuth(context.Background(), "github")
	require.NoError(t, err)

	select {
	case <-flow.Done():
	case <-time.After(time.Second):
		t.Fatal("flow did not end")
	}
	assert.ErrorContains(t, flow.Err(), "window gone")
}

func TestSignInOAuth_ContextEndsFlow(t *testing.T) {
	session := newFakeSession(config.Options{})
	c := newCoordinator(session, newFakeWindow(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	flow, err := c.SignInOAuth(ctx, "github")
	require.NoError(t, err)

	cancel()
	<-flow.Done()
	assert.ErrorIs(t, flow.Err(), context.Canceled)

	_, open := <-flow.Events()
	assert.False(t, open)
}

func TestSignInOAuth_CloseEndsFlowWithoutError(t *testing.T) {
	c := newCoordinator(newFakeSession(config.Options{}), newFakeWindow(), nil)

	flow, err := c.SignInOAuth(context.Background(), "github")
	require.NoError(t, err)

	flow.Close()
	assert.NoError(t, flow.Err())
	flow.Close()
}

func TestSignInOAuth_OpenFailure(t *testing.T) {
	window := newFakeWindow()
	window.openErr = errors.New("popup blocked")
	c := newCoordinator(newFakeSession(config.Options{}), window, nil)

	flow, err := c.SignInOAuth(context.Background(), "github")
	assert.Nil(t, flow)
	assert.ErrorContains(t, err, "popup blocked")
}

func TestSignInOAuth_InAppBrowserWithoutBrowserFallsBack(t *testing.T) {
	session := newFakeSession(config.Options{OAuthWindowType: config.WindowTypeInAppBrowser})
	window := newFakeWindow()
	c := newCoordinator(session, window, nil)

	flow, err := c.SignInOAuth(context.Background(), "github")
	require.NoError(t, err)
	defer flow.Close()

	require.Len(t, window.opened, 1)
	assert.Contains(t, window.opened[0], "omniauth_window_type=inAppBrowser")
}

func TestSignInOAuth_InAppBrowser(t *testing.T) {
	session := newFakeSession(config.Options{OAuthWindowType: config.WindowTypeInAppBrowser})
	view := &fakeView{
		events:  make(chan platform.NavigationEvent, 2),
		results: []map[string]string{delivered},
	}
	browser := &fakeBrowser{view: view}
	window := newFakeWindow()
	c := newCoordinator(session, window, browser)

	flow, err := c.SignInOAuth(context.Background(), "github")
	require.NoError(t, err)

	assert.Equal(t, "location=no", browser.options)
	assert.Contains(t, browser.url, "omniauth_window_type=inAppBrowser")
	assert.Empty(t, window.opened)

	view.events <- platform.NavigationEvent{URL: "https://github.com/login"}
	view.events <- platform.NavigationEvent{URL: "http://api.example.com/auth/github/callback?code=1"}

	select {
	case ev := <-flow.Events():
		require.NotNil(t, ev.Credentials)
		assert.Equal(t, "t", ev.Credentials.AccessToken)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}

	<-flow.Done()
	assert.NoError(t, flow.Err())
	assert.True(t, view.closed.Load())
	assert.Equal(t, []string{"requestCredentials();"}, view.scripts)
}

func TestSignInOAuth_InAppBrowserErrors(t *testing.T) {
	t.Run("missing callback", func(t *testing.T) {
		session := newFakeSession(config.Options{OAuthWindowType: config.WindowTypeInAppBrowser})
		browser := &fakeBrowser{view: &fakeView{}}
		c := newCoordinator(session, newFakeWindow(), browser)

		_, err := c.SignInOAuth(context.Background(), "twitter")
		assert.ErrorIs(t, err, config.ErrMissingBrowserCallback)
		assert.Empty(t, browser.url, "no view is opened")
	})

	t.Run("script failure", func(t *testing.T) {
		session := newFakeSession(config.Options{OAuthWindowType: config.WindowTypeInAppBrowser})
		view := &fakeView{events: make(chan platform.NavigationEvent, 1), scriptErr: errors.New("no script")}
		c := newCoordinator(session, newFakeWindow(), &fakeBrowser{view: view})

		flow, err := c.SignInOAuth(context.Background(), "github")
		require.NoError(t, err)

		view.events <- platform.NavigationEvent{URL: "http://x/auth/github/callback"}
		<-flow.Done()
		assert.ErrorContains(t, flow.Err(), "no script")
		assert.True(t, view.closed.Load())
	})

	t.Run("navigation failure", func(t *testing.T) {
		session := newFakeSession(config.Options{OAuthWindowType: config.WindowTypeInAppBrowser})
		view := &fakeView{events: make(chan platform.NavigationEvent, 1)}
		c := newCoordinator(session, newFakeWindow(), &fakeBrowser{view: view})

		flow, err := c.SignInOAuth(context.Background(), "github")
		require.NoError(t, err)

		view.events <- platform.NavigationEvent{URL: "https://github.com", Err: errors.New("offline")}
		<-flow.Done()
		assert.ErrorContains(t, flow.Err(), "offline")
	})

	t.Run("view closed", func(t *testing.T) {
		session := newFakeSession(config.Options{OAuthWindowType: config.WindowTypeInAppBrowser})
		view := &fakeView{events: make(chan platform.NavigationEvent)}
		c := newCoordinator(session, newFakeWindow(), &fakeBrowser{view: view})

		flow, err := c.SignInOAuth(context.Background(), "github")
		require.NoError(t, err)

		close(view.events)
		<-flow.Done()
		assert.ErrorIs(t, flow.Err(), ErrBrowserClosed)
	})
}

func TestSignInOAuth_SameWindow(t *testing.T) {
	session := newFakeSession(config.Options{OAuthWindowType: config.WindowTypeSameWindow})
	window := newFakeWindow()
	c := newCoordinator(session, window, nil)

	flow, err := c.SignInOAuth(context.Background(), "github")
	require.NoError(t, err)
	assert.Nil(t, flow)
	require.Len(t, window.navigated, 1)
	assert.Contains(t, window.navigated[0], "omniauth_window_type=sameWindow")
}

func TestSignInOAuth_UnsupportedWindowType(t *testing.T) {
	session := newFakeSession(config.Options{})
	session.opts.OAuthWindowType = "popover"
	window := newFakeWindow()
	c := newCoordinator(session, window, nil)

	flow, err := c.SignInOAuth(context.Background(), "github")
	assert.Nil(t, flow)
	assert.ErrorIs(t, err, config.ErrUnsupportedWindowType)
	assert.Empty(t, window.opened)
	assert.Empty(t, window.navigated)
}

func TestSignInOAuth_HeadlessEndsImmediately(t *testing.T) {
	c := newCoordinator(newFakeSession(config.Options{}), platform.Headless{}, nil)

	flow, err := c.SignInOAuth(context.Background(), "github")
	require.NoError(t, err)

	select {
	case <-flow.Done():
	case <-time.After(time.Second):
		t.Fatal("headless flow did not end")
	}
	assert.NoError(t, flow.Err())
}

func TestProcessOAuthCallback(t *testing.T) {
	session := newFakeSession(config.Options{})
	c := newCoordinator(session, newFakeWindow(), nil)

	c.ProcessOAuthCallback(context.Background())
	assert.Equal(t, 1, session.loads)
}
