package jetstream

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	nerrors "github.com/cpop/natscore/pkg/errors"
	"github.com/cpop/natscore/pkg/headers"
	"github.com/nats-io/nuid"
)

// DefaultAPIPrefix is the subject root every JetStream API request is
// constructed under.
const DefaultAPIPrefix = "$JS.API"

// DefaultRequestTimeout bounds how long a JetStream API request waits
// for a response.
const DefaultRequestTimeout = 5 * time.Second

// Response is a NATS response carrying both headers (for status-line
// inspection) and a JSON body.
type Response struct {
	Headers *headers.Headers
	Data    []byte
}

// InboxMessage is one message delivered to a raw subscription, as used
// by the pull-fetch loop: it needs the reply subject and headers that
// a plain request/reply round trip would otherwise discard.
type InboxMessage struct {
	Subject string
	Reply   string
	Headers *headers.Headers
	Data    []byte
}

// Conn is the connection-level capability a Context needs: typed
// request/reply for the admin API, and raw publish/subscribe for the
// pull-fetch loop which must collect a batch of deliveries rather than
// a single response. Client.JetStream supplies an adapter over the
// Client facade that satisfies this.
type Conn interface {
	Request(ctx context.Context, subject string, payload []byte, hdr *headers.Headers, timeout time.Duration) (*Response, error)
	Publish(ctx context.Context, subject, reply string, payload []byte, hdr *headers.Headers) error
	Subscribe(ctx context.Context, subject string) (msgs <-chan InboxMessage, unsubscribe func(), err error)
	NewInbox() string
}

// Context is the JetStream API entry point: an API prefix, a request
// timeout, and the underlying connection's request/reply capability.
type Context struct {
	requester Conn
	apiPrefix string
	timeout   time.Duration
}

// Option configures a Context.
type Option func(*Context)

// WithAPIPrefix overrides the default "$JS.API" subject root.
func WithAPIPrefix(prefix string) Option {
	return func(c *Context) { c.apiPrefix = prefix }
}

// WithRequestTimeout overrides the default 5s request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Context) { c.timeout = d }
}

// New constructs a JetStream Context bound to an already-connected
// client.
func New(requester Conn, opts ...Option) *Context {
	c := &Context{requester: requester, apiPrefix: DefaultAPIPrefix, timeout: DefaultRequestTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiSubject joins the context's prefix with the given tokens.
func (c *Context) apiSubject(tokens ...string) string {
	s := c.apiPrefix
	for _, t := range tokens {
		if t == "" {
			continue
		}
		s += "." + t
	}
	return s
}

// request performs one JetStream API round trip and decodes the
// response into out, inspecting it in the documented order: a 503
// status surfaces NotEnabled; a JSON "error" object surfaces ApiError;
// otherwise the body is decoded into out.
func (c *Context) request(ctx context.Context, subject string, body any, out any) error {
	payload := []byte("{}")
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nerrors.New(nerrors.KindAPIError, "failed to marshal request body", err)
		}
		payload = b
	}

	resp, err := c.requester.Request(ctx, subject, payload, nil, c.timeout)
	if err != nil {
		return err
	}

	if resp.Headers != nil && resp.Headers.Status == 503 {
		return nerrors.New(nerrors.KindNotEnabled, "jetstream is not enabled on this account", nil)
	}

	var env apiEnvelope
	if err := json.Unmarshal(resp.Data, &env); err == nil && env.Error != nil {
		return nerrors.New(nerrors.KindAPIError, env.Error.Description, nil)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return nerrors.New(nerrors.KindAPIError, "failed to decode jetstream response", err)
	}
	return nil
}

// Publish performs an at-least-once JetStream publish: it attaches
// the documented dedup/expectation headers, requests the subject, and
// decodes a PubAck. A response status >= 400 yields PublishFailed. If
// the caller does not supply a MsgID, one is generated so the
// server's duplicate window still has something to de-duplicate on.
func (c *Context) Publish(ctx context.Context, subject string, payload []byte, opts PublishOptions) (*PubAck, error) {
	msgID := opts.MsgID
	if msgID == "" {
		msgID = nuid.Next()
	}

	hdr := headers.New()
	hdr.Set("Nats-Msg-Id", msgID)
	if opts.ExpectedStream != "" {
		hdr.Set("Nats-Expected-Stream", opts.ExpectedStream)
	}
	if opts.ExpectedLastMsgID != "" {
		hdr.Set("Nats-Expected-Last-Msg-Id", opts.ExpectedLastMsgID)
	}
	if opts.ExpectedLastSequence != nil {
		hdr.Set("Nats-Expected-Last-Sequence", strconv.FormatUint(*opts.ExpectedLastSequence, 10))
	}
	if opts.ExpectedLastSubjectSeq != nil {
		hdr.Set("Nats-Expected-Last-Subject-Sequence", strconv.FormatUint(*opts.ExpectedLastSubjectSeq, 10))
	}

	resp, err := c.requester.Request(ctx, subject, payload, hdr, c.timeout)
	if err != nil {
		return nil, err
	}

	if resp.Headers != nil && resp.Headers.Status >= 400 {
		return nil, nerrors.New(nerrors.KindPublishFailed, resp.Headers.Description, nil)
	}

	var env apiEnvelope
	if err := json.Unmarshal(resp.Data, &env); err == nil && env.Error != nil {
		return nil, nerrors.New(nerrors.KindPublishFailed, env.Error.Description, nil)
	}

	var ack PubAck
	if err := json.Unmarshal(resp.Data, &ack); err != nil {
		return nil, nerrors.New(nerrors.KindPublishFailed, "failed to decode PubAck", err)
	}
	return &ack, nil
}
