package conn

import (
	"context"
	"crypto/tls"
	"io"
	"net"

	nerrors "github.com/cpop/natscore/pkg/errors"
)

// DialTCP opens a plain TCP connection to addr, honoring ctx
// cancellation and deadline.
func DialTCP(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nerrors.New(nerrors.KindConnectionRefused, "failed to dial "+addr, err)
	}
	return c, nil
}

// DialAny dials the given server URL, returning a plain byte stream.
// wss:// is dialed as a WebSocket and wrapped to look like any other
// stream; everything else is a raw TCP dial. TLS, when required, is
// layered on afterward by UpgradeTLS once INFO has been read — except
// for wss, whose handshake is itself over TLS and happens here.
func DialAny(ctx context.Context, u *ServerURL) (io.ReadWriteCloser, error) {
	if u.Scheme == "wss" {
		return DialWebSocket(ctx, u)
	}
	return DialTCP(ctx, u.Host)
}

// UpgradeTLS interposes a TLS client handshake in front of an existing
// plain connection. Only valid for scheme-negotiated TCP transports;
// wss already runs over TLS and must not be upgraded again.
func UpgradeTLS(ctx context.Context, c net.Conn, cfg *tls.Config, host string) (net.Conn, error) {
	tlsCfg := cfg.Clone()
	if tlsCfg.ServerName == "" {
		h, _, err := net.SplitHostPort(host)
		if err == nil {
			tlsCfg.ServerName = h
		}
	}

	tc := tls.Client(c, tlsCfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		return nil, nerrors.New(nerrors.KindTLSHandshakeFailed, "tls handshake failed", err)
	}
	return tc, nil
}
