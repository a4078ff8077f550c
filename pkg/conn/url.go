// Package conn implements the connection handler (component D): socket
// ownership, the TLS upgrade dance, keepalive, and the read/write
// serialization that the wire codec in pkg/protocol rides on top of.
package conn

import (
	"net/url"
	"strings"

	nerrors "github.com/cpop/natscore/pkg/errors"
)

// ServerURL is a parsed server address with any embedded credentials
// split out so they never leak into logs or stored URL strings.
type ServerURL struct {
	Scheme string // nats, tls, nats+tls, wss
	Host   string // host:port
	User   string
	Pass   string
	Token  string
}

// ParseServerURL parses one entry of the configured server list.
func ParseServerURL(raw string) (*ServerURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, nerrors.New(nerrors.KindInvalidURL, "malformed server URL", err)
	}

	switch u.Scheme {
	case "nats", "tls", "nats+tls", "wss":
	case "":
		return nil, nerrors.New(nerrors.KindInvalidURL, "server URL missing scheme", nil)
	default:
		return nil, nerrors.New(nerrors.KindInvalidURL, "unsupported server URL scheme: "+u.Scheme, nil)
	}
	if u.Host == "" {
		return nil, nerrors.New(nerrors.KindInvalidURL, "server URL missing host", nil)
	}

	out := &ServerURL{Scheme: u.Scheme, Host: u.Host}
	if !strings.Contains(u.Host, ":") {
		out.Host = defaultPort(u.Scheme, u.Host)
	}

	if u.User != nil {
		if pass, ok := u.User.Password(); ok {
			out.User = u.User.Username()
			out.Pass = pass
		} else {
			out.Token = u.User.Username()
		}
	}
	return out, nil
}

func defaultPort(scheme, host string) string {
	port := "4222"
	switch scheme {
	case "tls", "nats+tls":
		port = "4222"
	case "wss":
		port = "443"
	}
	return host + ":" + port
}

// RequiresTLS reports whether the URL scheme alone mandates a TLS
// upgrade, independent of what INFO later reports.
func (s *ServerURL) RequiresTLS() bool {
	return s.Scheme == "tls" || s.Scheme == "nats+tls" || s.Scheme == "wss"
}

// String renders the URL with credentials redacted, safe for logging.
func (s *ServerURL) String() string {
	return s.Scheme + "://" + s.Host
}
