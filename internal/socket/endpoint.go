package socket

import (
	"fmt"
	"net/url"
	"strings"
)

// EndpointURL derives the websocket endpoint from a socket base URL.
// http and https become ws and wss, "/websocket" is appended unless the
// path already ends with it, and vsn plus params are added to the query.
//
//	EndpointURL("https://example.com/socket", "2.0.0", nil)
//	  => wss://example.com/socket/websocket?vsn=2.0.0
func EndpointURL(base, vsn string, params map[string]string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid socket url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid socket url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid socket url: missing host")
	}

	if !strings.HasSuffix(u.Path, "/websocket") {
		u.Path += "/websocket"
	}

	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	if vsn != "" {
		q.Set("vsn", vsn)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
