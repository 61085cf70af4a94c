package platform

import (
	"context"
	"net/url"
)

// Headless is the platform used when there is no browser at all: no window
// opens, no message arrives and navigation does nothing.
type Headless struct{}

var (
	_ Window      = Headless{}
	_ ParamSource = Headless{}
)

// Location returns "/" for both href and origin.
func (Headless) Location() Location {
	return Location{Href: "/", Origin: "/"}
}

// Open returns a nil popup.
func (Headless) Open(string, string, string) (Popup, error) {
	return nil, nil
}

// Messages returns a closed channel.
func (Headless) Messages(context.Context) <-chan Message {
	ch := make(chan Message)
	close(ch)
	return ch
}

// Navigate does nothing.
func (Headless) Navigate(string) error {
	return nil
}

// QueryParams returns a closed channel.
func (Headless) QueryParams(context.Context) <-chan url.Values {
	ch := make(chan url.Values)
	close(ch)
	return ch
}
