package conn

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"time"

	nerrors "github.com/cpop/natscore/pkg/errors"
	"github.com/cpop/natscore/pkg/protocol"
)

// TLSOptions configures the optional TLS upgrade.
type TLSOptions struct {
	Enabled bool
	Config  *tls.Config
}

// ConnectResult is everything Connect hands back once CONNECT has
// been flushed: the server's INFO, and a running Handler ready to
// stream further events.
type ConnectResult struct {
	Info    *protocol.Info
	Handler *Handler
}

// StateNotifier lets a caller mirror the component D TLS upgrade onto
// its own connection-lifecycle state machine: TLSBegin fires just
// before the handshake starts, TLSComplete just after it succeeds.
// Either field may be nil. Neither fires for a wss:// server, whose
// handshake is part of the dial itself rather than a post-INFO
// upgrade.
type StateNotifier struct {
	TLSBegin    func()
	TLSComplete func()
}

// Connect implements the component D connection sequence: dial, wait
// for INFO, decide on and perform a TLS upgrade, build and send
// CONNECT, and start the handler's read loop and keepalive timer. It
// is cancellable at every I/O suspension point, including the INFO
// wait. buildConnectInfo receives the server's nonce (empty if none
// was offered) so auth strategies that must sign it (NKey, JWT) can
// be resolved only after INFO has been read. notify may be nil.
func Connect(ctx context.Context, u *ServerURL, tlsOpts TLSOptions, buildConnectInfo func(nonce string) (protocol.ConnectInfo, error), pingInterval time.Duration, maxPingsOut int, notify *StateNotifier) (*ConnectResult, error) {
	stream, err := DialAny(ctx, u)
	if err != nil {
		return nil, err
	}

	info, rest, err := waitForInfo(ctx, stream)
	if err != nil {
		stream.Close()
		return nil, err
	}

	wantTLS := u.RequiresTLS() || tlsOpts.Enabled
	if info.TLSRequired && !wantTLS && u.Scheme != "wss" {
		stream.Close()
		return nil, nerrors.New(nerrors.KindTLSRequired, "server requires TLS but client is not configured for it", nil)
	}

	if wantTLS && u.Scheme != "wss" {
		if notify != nil && notify.TLSBegin != nil {
			notify.TLSBegin()
		}

		cfg := tlsOpts.Config
		if cfg == nil {
			cfg = &tls.Config{}
		}
		nc, ok := stream.(net.Conn)
		if !ok {
			stream.Close()
			return nil, nerrors.New(nerrors.KindTLSConfigurationError, "transport does not support a TLS upgrade", nil)
		}
		upgraded, err := UpgradeTLS(ctx, nc, cfg, u.Host)
		if err != nil {
			stream.Close()
			return nil, err
		}
		stream = upgraded

		if notify != nil && notify.TLSComplete != nil {
			notify.TLSComplete()
		}
	}

	connectInfo, err := buildConnectInfo(info.Nonce)
	if err != nil {
		stream.Close()
		return nil, nerrors.New(nerrors.KindAuthenticationFailed, "failed to build auth fields", err)
	}
	connectInfo.Protocol = 1
	frame, err := protocol.EncodeConnect(connectInfo)
	if err != nil {
		stream.Close()
		return nil, nerrors.New(nerrors.KindAuthenticationFailed, "failed to encode CONNECT", err)
	}
	if _, err := stream.Write(frame); err != nil {
		stream.Close()
		return nil, nerrors.New(nerrors.KindIO, "failed to flush CONNECT", err)
	}

	h := NewHandler(stream, pingInterval, maxPingsOut)
	h.dec.Feed(rest)
	h.Start(ctx)

	return &ConnectResult{Info: info, Handler: h}, nil
}

// waitForInfo blocks until the server's opening INFO frame has been
// read, returning the parsed Info and any bytes read past the frame
// boundary so the caller's Handler can resume decoding from there
// instead of dropping them.
func waitForInfo(ctx context.Context, r io.Reader) (*protocol.Info, []byte, error) {
	dec := protocol.NewDecoder()
	buf := make([]byte, 4096)

	type result struct {
		info *protocol.Info
		rest []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		for {
			n, err := r.Read(buf)
			if err != nil {
				done <- result{err: nerrors.New(nerrors.KindIO, "failed reading INFO", err)}
				return
			}
			dec.Feed(buf[:n])
			d, derr := dec.Next()
			if derr != nil {
				done <- result{err: derr}
				return
			}
			if d == nil {
				continue
			}
			if d.Op != protocol.OpInfo {
				done <- result{err: nerrors.New(nerrors.KindInvalidMessage, "expected INFO as first frame", nil)}
				return
			}
			done <- result{info: d.Info, rest: dec.TakeBuffered()}
			return
		}
	}()

	select {
	case <-ctx.Done():
		return nil, nil, nerrors.New(nerrors.KindTimeout, "cancelled waiting for INFO", ctx.Err())
	case res := <-done:
		return res.info, res.rest, res.err
	}
}
