// Package handshake runs OAuth sign-in handshakes against a token API.
//
// Three strategies are selected by oAuthWindowType: newWindow opens a popup
// and relays the credentials it posts back, inAppBrowser drives an embedded
// browser to the callback page and reads the credentials from it, and
// sameWindow navigates away. A platform without an embedded browser falls
// back from inAppBrowser to newWindow.
package handshake
