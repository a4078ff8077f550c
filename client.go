package natscore

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cpop/natscore/pkg/conn"
	"github.com/cpop/natscore/pkg/connstate"
	nerrors "github.com/cpop/natscore/pkg/errors"
	"github.com/cpop/natscore/pkg/headers"
	"github.com/cpop/natscore/pkg/logger"
	"github.com/cpop/natscore/pkg/protocol"
	"github.com/cpop/natscore/pkg/sub"
	"github.com/cpop/natscore/pkg/subject"
)

// Client is the public connection facade (component I): connect,
// publish, subscribe, request/reply, and the reconnection loop that
// keeps a subscription set alive across an unsolicited disconnect.
type Client struct {
	opts Options

	mu        sync.Mutex
	state     *connstate.Machine
	handler   *conn.Handler
	serverIdx int

	subs     *sub.Manager[*Message]
	pending  *pendingMap
	inboxSID string

	sent     atomic.Uint64
	received atomic.Uint64

	closeCtx    context.Context
	cancelClose context.CancelFunc
	closeOnce   sync.Once
}

// Connect dials the first reachable configured server, completes the
// CONNECT handshake, and starts the keepalive and reconnection
// machinery. It is valid to call Connect only once per Client; the
// returned Client owns its own background goroutines until Close.
func Connect(ctx context.Context, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.Servers) == 0 {
		return nil, nerrors.New(nerrors.KindNoServersAvailable, "no servers configured", nil)
	}

	c := &Client{
		opts:    o,
		state:   connstate.New(),
		subs:    sub.New[*Message](),
		pending: newPendingMap(),
	}
	c.closeCtx, c.cancelClose = context.WithCancel(context.Background())

	if err := c.connect(ctx); err != nil {
		c.cancelClose()
		return nil, err
	}
	return c, nil
}

// buildConnectInfo resolves the CONNECT frame's auth fields against the
// server's nonce (empty if none was offered).
func (c *Client) buildConnectInfo(nonce string) (protocol.ConnectInfo, error) {
	fields, err := c.opts.Auth.Fields(nonce)
	if err != nil {
		return protocol.ConnectInfo{}, err
	}
	return protocol.ConnectInfo{
		Echo:         !c.opts.NoEcho,
		Headers:      true,
		NoResponders: true,
		Name:         c.opts.Name,
		Lang:         "go",
		Version:      "0.1.0",
		AuthToken:    fields.AuthToken,
		User:         fields.User,
		Pass:         fields.Pass,
		NKey:         fields.NKey,
		JWT:          fields.JWT,
		Sig:          fields.Sig,
	}, nil
}

// tlsNotifier mirrors component D's TLS upgrade onto the client's own
// state machine: Connecting -> TlsHandshake -> Connecting. Only
// legal from Connecting, so a reconnect attempt (state Reconnecting)
// harmlessly no-ops these via Apply's illegal-transition rejection.
func (c *Client) tlsNotifier() *conn.StateNotifier {
	return &conn.StateNotifier{
		TLSBegin: func() {
			c.mu.Lock()
			c.state.Apply(connstate.EvTLSRequired, nil, 0)
			c.mu.Unlock()
		},
		TLSComplete: func() {
			c.mu.Lock()
			c.state.Apply(connstate.EvTLSComplete, nil, 0)
			c.mu.Unlock()
		},
	}
}

// dialOnce tries each configured server once, starting at serverIdx and
// wrapping around, returning the first successful handshake.
func (c *Client) dialOnce(ctx context.Context) (*conn.ConnectResult, int, error) {
	c.mu.Lock()
	start := c.serverIdx
	servers := c.opts.Servers
	c.mu.Unlock()

	var lastErr error
	for i := 0; i < len(servers); i++ {
		idx := (start + i) % len(servers)
		u, err := conn.ParseServerURL(servers[idx])
		if err != nil {
			lastErr = err
			continue
		}
		tlsOpts := conn.TLSOptions{Enabled: c.opts.TLS != nil, Config: c.opts.TLS}
		res, err := conn.Connect(ctx, u, tlsOpts, c.buildConnectInfo, c.opts.PingInterval, c.opts.MaxPingsOut, c.tlsNotifier())
		if err != nil {
			lastErr = err
			continue
		}
		return res, idx, nil
	}
	if lastErr == nil {
		lastErr = nerrors.New(nerrors.KindNoServersAvailable, "no servers available", nil)
	}
	return nil, 0, lastErr
}

// connect performs the initial connection: Disconnected/Closed ->
// Connecting -> Connected.
func (c *Client) connect(ctx context.Context) error {
	c.mu.Lock()
	taken := c.state.Apply(connstate.EvConnect, nil, 0)
	c.mu.Unlock()
	if !taken {
		return nerrors.New(nerrors.KindClosed, "connect is not valid from the current state", nil)
	}

	res, idx, err := c.dialOnce(ctx)
	if err != nil {
		c.mu.Lock()
		c.state.Apply(connstate.EvDisconnected, nil, 0)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.serverIdx = idx
	c.handler = res.Handler
	c.state.Apply(connstate.EvConnected, res.Info, 0)
	c.mu.Unlock()

	c.resendInboxSubscription(res.Handler)
	go c.runHandler(res.Handler)
	return nil
}

// reconnectAttempt tries to re-establish the connection while in the
// Reconnecting state: Reconnecting -> Connected on success.
func (c *Client) reconnectAttempt(ctx context.Context) error {
	res, idx, err := c.dialOnce(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.serverIdx = idx
	c.handler = res.Handler
	c.state.Apply(connstate.EvConnected, res.Info, 0)
	c.mu.Unlock()

	c.resendInboxSubscription(res.Handler)
	c.resubscribeAll(res.Handler)
	go c.runHandler(res.Handler)
	return nil
}

func (c *Client) resendInboxSubscription(h *conn.Handler) {
	c.mu.Lock()
	sid := c.inboxSID
	prefix := c.opts.InboxPrefix
	c.mu.Unlock()
	if sid != "" {
		_ = h.WriteFrame(protocol.EncodeSub(prefix+".>", "", sid))
	}
}

func (c *Client) resubscribeAll(h *conn.Handler) {
	for _, st := range c.subs.ResubscribeList() {
		_ = h.WriteFrame(protocol.EncodeSub(st.Subject, st.Queue, st.SID))
	}
}

// runHandler drains one Handler's events until it closes, then decides
// whether to enter the reconnect loop or shut the client down.
func (c *Client) runHandler(h *conn.Handler) {
	for ev := range h.Events() {
		switch ev.Kind {
		case conn.Message:
			c.handleDecoded(ev.Decoded)
		case conn.Closed:
			c.onHandlerClosed()
			return
		}
	}
}

func (c *Client) handleDecoded(d *protocol.Decoded) {
	switch d.Op {
	case protocol.OpMsg:
		c.routeMessage(messageFromMsg(d.Msg))
	case protocol.OpHMsg:
		c.routeMessage(messageFromHMsg(d.HMsg))
	case protocol.OpErr:
		logger.L().Warn("server reported an error", "message", d.Err.Message)
	}
}

func (c *Client) routeMessage(m *Message) {
	m.client = c
	c.received.Add(1)

	c.mu.Lock()
	inboxSID := c.inboxSID
	c.mu.Unlock()

	if inboxSID != "" && m.sid == inboxSID {
		c.pending.complete(m.Subject, m)
		return
	}
	if res := c.subs.Deliver(m.sid, m); res == sub.Unknown {
		logger.L().Debug("message for unknown subscription", "sid", m.sid, "subject", m.Subject)
	}
}

// onHandlerClosed reacts to an unsolicited socket close. Only a
// previously-Connected client with reconnection enabled enters the
// reconnect loop (Draining never does, per the state table); anything
// else drives a final Disconnected -> Close shutdown.
func (c *Client) onHandlerClosed() {
	c.mu.Lock()
	cur := c.state.State()
	if cur == connstate.Closed {
		c.mu.Unlock()
		return
	}
	shouldReconnect := cur == connstate.Connected && c.opts.Reconnect.Enabled
	if shouldReconnect {
		c.state.Apply(connstate.EvReconnecting, nil, 1)
	} else {
		c.state.Apply(connstate.EvDisconnected, nil, 0)
	}
	c.mu.Unlock()

	if shouldReconnect {
		go c.reconnectLoop(1)
		return
	}
	c.finalClose()
}

// reconnectLoop sleeps for the policy's backoff delay before each
// attempt, observing cancellation (via closeCtx) at every suspension
// point, until should_continue returns false or a reconnect succeeds.
func (c *Client) reconnectLoop(attempt int) {
	for c.opts.Reconnect.ShouldContinue(attempt) {
		delay := c.opts.Reconnect.NextDelay(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-c.closeCtx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := c.reconnectAttempt(c.closeCtx); err == nil {
			return
		} else {
			logger.L().Warn("reconnect attempt failed", "attempt", attempt, "error", err)
		}

		attempt++
		c.mu.Lock()
		c.state.Apply(connstate.EvReconnecting, nil, attempt)
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.state.Apply(connstate.EvClose, nil, 0)
	c.mu.Unlock()
	c.finalClose()
}

func (c *Client) finalClose() {
	_ = c.Close()
}

// Publish sends payload to subject with no reply subject and no
// headers.
func (c *Client) Publish(ctx context.Context, subj string, payload []byte) error {
	return c.publishRaw(ctx, subj, "", payload, nil)
}

// PublishWithReply sends payload to subject with reply set as the
// reply-to field, without waiting for a response.
func (c *Client) PublishWithReply(ctx context.Context, subj, reply string, payload []byte) error {
	return c.publishRaw(ctx, subj, reply, payload, nil)
}

// PublishHeaders sends payload to subject carrying hdr, with no reply
// subject.
func (c *Client) PublishHeaders(ctx context.Context, subj string, hdr *headers.Headers, payload []byte) error {
	return c.publishRaw(ctx, subj, "", payload, hdr)
}

func (c *Client) publishRaw(ctx context.Context, subj, reply string, payload []byte, hdr *headers.Headers) error {
	if err := subject.ValidatePublish(subj); err != nil {
		return err
	}

	c.mu.Lock()
	if !c.state.CanAcceptOperations() {
		c.mu.Unlock()
		return nerrors.New(nerrors.KindServerError, "Not connected", nil)
	}
	h := c.handler
	c.mu.Unlock()

	var frame []byte
	if hdr != nil && hdr.Len() > 0 {
		frame = protocol.EncodeHPub(subj, reply, hdr, payload)
	} else {
		frame = protocol.EncodePub(subj, reply, payload)
	}
	if err := h.WriteFrame(frame); err != nil {
		return err
	}
	c.sent.Add(1)
	return nil
}

// Subscribe registers interest in subject (optionally within queue
// group) and emits SUB. Messages arrive on the returned Subscription
// until Unsubscribe is called or the Client closes.
func (c *Client) Subscribe(ctx context.Context, subj, queue string) (*Subscription, error) {
	if err := subject.ValidateSubscribe(subj); err != nil {
		return nil, err
	}
	if queue != "" {
		if err := subject.ValidateQueueGroup(queue); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	if !c.state.CanAcceptOperations() {
		c.mu.Unlock()
		return nil, nerrors.New(nerrors.KindServerError, "Not connected", nil)
	}
	h := c.handler
	sid := c.subs.GenerateSID()
	ch := make(chan *Message, 64)
	c.subs.Register(sid, subj, queue, ch)
	c.mu.Unlock()

	if err := h.WriteFrame(protocol.EncodeSub(subj, queue, sid)); err != nil {
		c.subs.Unregister(sid)
		return nil, err
	}
	return &Subscription{sid: sid, subject: subj, queue: queue, ch: ch, client: c}, nil
}

// NewInbox mints a fresh reply-style subject rooted at the client's
// configured inbox prefix.
func (c *Client) NewInbox() string {
	return subject.NewInbox(c.opts.InboxPrefix)
}

// Drain transitions to Draining, waits up to the configured drain
// timeout for in-flight work to settle, then closes. This is a
// best-effort wait, not a guarantee that every in-flight delivery has
// been handled: the connection still closes once the timeout elapses
// regardless of outstanding subscriptions or pending requests.
func (c *Client) Drain(ctx context.Context) error {
	c.mu.Lock()
	taken := c.state.Apply(connstate.EvDrain, nil, 0)
	c.mu.Unlock()
	if !taken {
		return nerrors.New(nerrors.KindDraining, "drain is only valid on an active connection", nil)
	}

	timer := time.NewTimer(c.opts.DrainTimeout)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	case <-c.closeCtx.Done():
	}
	return c.Close()
}

// Close idempotently shuts the client down: it finishes every
// subscription, fails every pending request with Closed, closes the
// socket, and stops the reconnection loop.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancelClose()

		c.mu.Lock()
		c.state.Apply(connstate.EvClose, nil, 0)
		h := c.handler
		c.mu.Unlock()

		c.subs.FinishAll()
		c.pending.failAll(nerrors.New(nerrors.KindClosed, "connection closed", nil))

		if h != nil {
			h.Close()
		}
	})
	return nil
}

// Sent, Received report message counts accumulated across the
// client's lifetime, including any reconnects.
func (c *Client) Sent() uint64     { return c.sent.Load() }
func (c *Client) Received() uint64 { return c.received.Load() }
