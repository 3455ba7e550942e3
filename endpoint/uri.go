package endpoint

import (
	"errors"
	"net/url"
)

// ErrUnsupportedScheme is returned when a URI's scheme is neither ws nor
// wss.
var ErrUnsupportedScheme = errors.New("endpoint: uri scheme must be ws or wss")

// parseURI validates uri against spec.md §4.D and fills in the default port
// for its scheme when one is not given explicitly.
//
// IDN host encoding (idnURI in the original WebSocket.java) is not applied:
// this module imports no punycode conversion, so non-ASCII hosts are passed
// through to net.Dial as-is. See DESIGN.md.
func parseURI(uri string) (*url.URL, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, ErrUnsupportedScheme
	}
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "wss" {
			port = "443"
		}
		u.Host = u.Hostname() + ":" + port
	}
	return u, nil
}
