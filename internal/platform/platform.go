package platform

import (
	"context"
	"net/url"
)

// Message types exchanged with an OAuth popup.
const (
	MessageDeliverCredentials = "deliverCredentials"
	MessageAuthFailure        = "authFailure"
	MessageRequestCredentials = "requestCredentials"
)

// Location is the address of the page (or local endpoint) the client runs on.
type Location struct {
	Href   string
	Origin string
}

// Message is a cross-context message received from an OAuth window.
type Message struct {
	Message string
	Data    map[string]string
}

// Popup is a window opened by Window.Open.
type Popup interface {
	// Closed reports whether the user (or the platform) has closed the window.
	Closed() bool

	// PostMessage sends a ping to the window. The window's own script
	// answers with a Message on the parent's message stream.
	PostMessage(message string) error
}

// Window is the top-level browsing context of the client.
type Window interface {
	Location() Location

	// Open opens url in a new window. A nil Popup with a nil error means the
	// platform has no windows to open.
	Open(url, target, features string) (Popup, error)

	// Messages streams cross-context messages until ctx is done.
	Messages(ctx context.Context) <-chan Message

	// Navigate replaces the current page with url.
	Navigate(url string) error
}

// NavigationEvent is emitted by an embedded browser view each time a page
// finishes loading. Err is set when the load failed.
type NavigationEvent struct {
	URL string
	Err error
}

// BrowserView is an embedded browser opened by EmbeddedBrowser.Create.
type BrowserView interface {
	Events() <-chan NavigationEvent
	ExecuteScript(ctx context.Context, code string) ([]map[string]string, error)
	Close() error
}

// EmbeddedBrowser creates in-app browser views. Platforms without one pass
// a nil EmbeddedBrowser.
type EmbeddedBrowser interface {
	Create(url, target, options string) (BrowserView, error)
}

// ParamSource yields the query parameters of the current route. One-shot
// sources close the channel after a single emission.
type ParamSource interface {
	QueryParams(ctx context.Context) <-chan url.Values
}

// Router navigates between application routes.
type Router interface {
	Navigate(path string) error
}
