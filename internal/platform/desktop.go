package platform

import (
	"context"
	"net/url"
)

// Desktop is the platform for a CLI running on a workstation. The system
// browser plays the role of the popup and a local CallbackServer receives
// the redirect that carries the credentials.
type Desktop struct {
	server *CallbackServer
	open   func(string) error
}

var (
	_ Window      = (*Desktop)(nil)
	_ ParamSource = (*Desktop)(nil)
)

// DesktopConfig configures the desktop platform.
type DesktopConfig struct {
	// CallbackPort is the local port receiving OAuth redirects.
	// Defaults to DefaultCallbackPort.
	CallbackPort int

	// CallbackPath is the route of the callback, e.g. "oauth_callback".
	CallbackPath string
}

// NewDesktop creates a desktop platform. Call Start before any handshake.
func NewDesktop(cfg DesktopConfig) *Desktop {
	return &Desktop{
		server: NewCallbackServer(cfg.CallbackPort, cfg.CallbackPath),
		open:   OpenBrowser,
	}
}

// Start starts the callback server. It stops when ctx is cancelled.
func (d *Desktop) Start(ctx context.Context) error {
	_, err := d.server.Start(ctx)
	return err
}

// Stop shuts the callback server down.
func (d *Desktop) Stop() {
	d.server.Stop()
}

// Location reports the callback server as the current page.
func (d *Desktop) Location() Location {
	origin := d.server.BaseURL()
	return Location{Href: origin + "/", Origin: origin}
}

// Open opens url in the system browser. The returned popup reports closed
// once the callback server has served a redirect.
func (d *Desktop) Open(rawURL, _, _ string) (Popup, error) {
	baseline := d.server.Served()
	if err := d.open(rawURL); err != nil {
		return nil, err
	}
	return &browserPopup{server: d.server, baseline: baseline}, nil
}

// Messages converts every callback into a popup message.
func (d *Desktop) Messages(ctx context.Context) <-chan Message {
	queries := d.server.Subscribe(ctx)
	out := make(chan Message)

	go func() {
		defer close(out)
		for query := range queries {
			select {
			case out <- MessageFromQuery(query):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Navigate opens url in the system browser; a CLI has no page of its own.
func (d *Desktop) Navigate(rawURL string) error {
	return d.open(rawURL)
}

// QueryParams streams the query of every callback.
func (d *Desktop) QueryParams(ctx context.Context) <-chan url.Values {
	return d.server.Subscribe(ctx)
}

type browserPopup struct {
	server   *CallbackServer
	baseline int
}

func (p *browserPopup) Closed() bool {
	return p.server.Served() > p.baseline
}

// PostMessage is accepted and dropped: a browser tab cannot be scripted
// from here, and the callback server pushes credentials on its own.
func (p *browserPopup) PostMessage(string) error {
	return nil
}
