package handshake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tokenauth/internal/config"
	"tokenauth/internal/credentials"
	"tokenauth/internal/platform"
)

const (
	// DefaultPopupPollInterval is how often an open popup is polled for credentials.
	DefaultPopupPollInterval = 500 * time.Millisecond

	// DefaultBrowserPollInterval is how often the sign-in state is checked
	// after an embedded browser reached the callback.
	DefaultBrowserPollInterval = 400 * time.Millisecond

	requestCredentialsScript = "requestCredentials();"
)

// ErrBrowserClosed ends an inAppBrowser flow whose view closed before the
// sign-in completed.
var ErrBrowserClosed = errors.New("browser view closed before sign-in completed")

// Session is the part of the token manager a handshake drives.
type Session interface {
	Options() config.Options
	CurrentUserType() string
	UserSignedIn() bool
	CurrentAuthData() *credentials.Set
	ExtractFromPostMessage(data map[string]string) bool
	LoadFromQueryParams(ctx context.Context)
}

// Config configures a Coordinator.
type Config struct {
	Session Session
	Window  platform.Window

	// Browser is the embedded browser, nil when the platform has none.
	Browser platform.EmbeddedBrowser

	PopupPollInterval   time.Duration
	BrowserPollInterval time.Duration

	Logger *slog.Logger
}

// Coordinator runs OAuth handshakes with the strategy selected by
// oAuthWindowType.
type Coordinator struct {
	session Session
	window  platform.Window
	browser platform.EmbeddedBrowser

	popupPoll   time.Duration
	browserPoll time.Duration

	logger *slog.Logger
}

// New creates a coordinator.
func New(cfg Config) *Coordinator {
	c := &Coordinator{
		session:     cfg.Session,
		window:      cfg.Window,
		browser:     cfg.Browser,
		popupPoll:   cfg.PopupPollInterval,
		browserPoll: cfg.BrowserPollInterval,
		logger:      cfg.Logger,
	}
	if c.window == nil {
		c.window = platform.Headless{}
	}
	if c.popupPoll <= 0 {
		c.popupPoll = DefaultPopupPollInterval
	}
	if c.browserPoll <= 0 {
		c.browserPoll = DefaultBrowserPollInterval
	}
	if c.logger == nil {
		c.logger = slog.Default().With("subsystem", "OAuth")
	}
	return c
}

// SignInOAuth starts a handshake with provider. Configuration errors are
// returned before any window is opened. The sameWindow strategy navigates
// away and returns a nil flow.
func (c *Coordinator) SignInOAuth(ctx context.Context, provider string) (*Flow, error) {
	opts := c.session.Options()
	windowType := opts.OAuthWindowType

	switch {
	case windowType == config.WindowTypeNewWindow,
		windowType == config.WindowTypeInAppBrowser && c.browser == nil:
		return c.signInPopup(ctx, provider, windowType)

	case windowType == config.WindowTypeInAppBrowser:
		return c.signInEmbedded(ctx, provider)

	case windowType == config.WindowTypeSameWindow:
		authURL := c.AuthorizationURL(provider, windowType)
		c.logger.Debug("Navigating to OAuth provider", "provider", provider)
		if err := c.window.Navigate(authURL); err != nil {
			return nil, fmt.Errorf("failed to navigate to %s: %w", provider, err)
		}
		return nil, nil

	default:
		return nil, config.NewUnsupportedWindowTypeError(windowType)
	}
}

// ProcessOAuthCallback picks up the credentials appended to the redirect
// back to the application.
func (c *Coordinator) ProcessOAuthCallback(ctx context.Context) {
	c.session.LoadFromQueryParams(ctx)
}

// AuthorizationURL builds the provider URL for the given window type.
func (c *Coordinator) AuthorizationURL(provider string, windowType config.WindowType) string {
	opts := c.session.Options()

	providerPath, ok := opts.OAuthPaths[provider]
	if !ok || providerPath == "" {
		providerPath = "/auth/" + provider
	}
	callbackURL := c.window.Location().Origin + "/" + opts.OAuthCallbackPath

	var b strings.Builder
	b.WriteString(opts.OAuthBase)
	b.WriteString("/")
	b.WriteString(providerPath)
	b.WriteString("?omniauth_window_type=")
	b.WriteString(string(windowType))
	b.WriteString("&auth_origin_url=")
	b.WriteString(escapeComponent(callbackURL))
	if userType := c.session.CurrentUserType(); userType != "" {
		b.WriteString("&resource_class=")
		b.WriteString(userType)
	}
	return b.String()
}

// componentUnescaped maps url.QueryEscape output back for the characters a
// URI component leaves as they are.
var componentUnescaped = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent escapes s as a single URI component: spaces become %20
// and the marks !'()* stay literal.
func escapeComponent(s string) string {
	return componentUnescaped.Replace(url.QueryEscape(s))
}

// windowFeatures renders oAuthWindowOptions in sorted key order after the
// fixed close button caption.
func windowFeatures(options map[string]string) string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("closebuttoncaption=Cancel")
	for _, k := range keys {
		fmt.Fprintf(&b, ",%s=%s", k, options[k])
	}
	return b.String()
}

// signInPopup opens the provider in a popup, relays the credentials it
// posts back, and pings it until it is closed.
func (c *Coordinator) signInPopup(ctx context.Context, provider string, windowType config.WindowType) (*Flow, error) {
	authURL := c.AuthorizationURL(provider, windowType)
	features := windowFeatures(c.session.Options().OAuthWindowOptions)

	popup, err := c.window.Open(authURL, "_blank", features)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s sign-in window: %w", provider, err)
	}

	flowCtx, cancel := context.WithCancel(ctx)
	flow := newFlow(cancel)
	logger := c.logger.With("flow", flow.ID(), "provider", provider)
	logger.Debug("Opened OAuth window", "url", authURL)

	g, gctx := errgroup.WithContext(flowCtx)
	messages := c.window.Messages(gctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case msg, ok := <-messages:
				if !ok {
					return nil
				}
				switch msg.Message {
				case platform.MessageDeliverCredentials:
					if c.session.ExtractFromPostMessage(msg.Data) {
						logger.Debug("Installed credentials from OAuth window")
					}
				case platform.MessageAuthFailure:
					logger.Debug("OAuth window reported failure", "error", msg.Data["error"])
				default:
					continue
				}
				flow.emit(gctx, Event{Message: msg.Message, Data: msg.Data})
			}
		}
	})

	if popup != nil {
		g.Go(func() error {
			ticker := time.NewTicker(c.popupPoll)
			defer ticker.Stop()

			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if popup.Closed() {
						logger.Debug("OAuth window closed")
						return nil
					}
					if err := popup.PostMessage(platform.MessageRequestCredentials); err != nil {
						return fmt.Errorf("failed to ping OAuth window: %w", err)
					}
				}
			}
		})
	}

	go func() {
		err := g.Wait()
		if err == nil {
			err = ctx.Err()
		}
		flow.finish(err)
	}()

	return flow, nil
}

// signInEmbedded opens the provider in an embedded browser and completes
// once the credentials fetched from the callback page are installed.
func (c *Coordinator) signInEmbedded(ctx context.Context, provider string) (*Flow, error) {
	opts := c.session.Options()
	callback := opts.OAuthBrowserCallbacks[provider]
	if callback == "" {
		return nil, config.NewMissingBrowserCallbackError(provider)
	}

	authURL := c.AuthorizationURL(provider, config.WindowTypeInAppBrowser)
	view, err := c.browser.Create(authURL, "_blank", "location=no")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in browser view: %w", provider, err)
	}

	flowCtx, cancel := context.WithCancel(ctx)
	flow := newFlow(cancel)
	logger := c.logger.With("flow", flow.ID(), "provider", provider)

	go func() {
		defer func() {
			if err := view.Close(); err != nil {
				logger.Debug("Failed to close browser view", "error", err)
			}
		}()
		flow.finish(c.runEmbedded(flowCtx, ctx, flow, view, callback, logger))
	}()

	return flow, nil
}

func (c *Coordinator) runEmbedded(ctx, parent context.Context, flow *Flow, view platform.BrowserView, callback string, logger *slog.Logger) error {
	events := view.Events()
	for {
		select {
		case <-ctx.Done():
			return parent.Err()
		case ev, ok := <-events:
			if !ok {
				return ErrBrowserClosed
			}
			if ev.Err != nil {
				return fmt.Errorf("browser view failed to load %s: %w", ev.URL, ev.Err)
			}
			if !strings.Contains(ev.URL, callback) {
				continue
			}

			logger.Debug("Browser view reached callback", "url", ev.URL)
			results, err := view.ExecuteScript(ctx, requestCredentialsScript)
			if err != nil {
				return fmt.Errorf("failed to request credentials: %w", err)
			}
			if len(results) > 0 {
				c.session.ExtractFromPostMessage(results[0])
			}
			return c.awaitSignIn(ctx, parent, flow)
		}
	}
}

func (c *Coordinator) awaitSignIn(ctx, parent context.Context, flow *Flow) error {
	ticker := time.NewTicker(c.browserPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return parent.Err()
		case <-ticker.C:
			if !c.session.UserSignedIn() {
				continue
			}
			flow.emit(ctx, Event{
				Message:     platform.MessageDeliverCredentials,
				Credentials: c.session.CurrentAuthData(),
			})
			return nil
		}
	}
}
