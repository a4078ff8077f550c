package natscore

import (
	"context"
	"time"

	"github.com/cpop/natscore/pkg/headers"
	"github.com/cpop/natscore/pkg/jetstream"
	"github.com/cpop/natscore/pkg/subject"
)

// JetStream returns a JetStream API context bound to this connection.
func (c *Client) JetStream(opts ...jetstream.Option) *jetstream.Context {
	return jetstream.New(&jetstreamConn{client: c}, opts...)
}

// jetstreamConn adapts Client's public, request-reply-friendly method
// set to the narrower shape jetstream.Conn expects, so Client itself
// can keep its own Publish/Subscribe signatures ergonomic for ordinary
// core-NATS callers.
type jetstreamConn struct {
	client *Client
}

func (j *jetstreamConn) Request(ctx context.Context, subj string, payload []byte, hdr *headers.Headers, timeout time.Duration) (*jetstream.Response, error) {
	msg, err := j.client.requestRaw(ctx, subj, payload, hdr, timeout)
	if err != nil {
		return nil, err
	}
	return &jetstream.Response{Headers: msg.Headers, Data: msg.Data}, nil
}

func (j *jetstreamConn) Publish(ctx context.Context, subj, reply string, payload []byte, hdr *headers.Headers) error {
	return j.client.publishRaw(ctx, subj, reply, payload, hdr)
}

func (j *jetstreamConn) Subscribe(ctx context.Context, subj string) (<-chan jetstream.InboxMessage, func(), error) {
	s, err := j.client.Subscribe(ctx, subj, "")
	if err != nil {
		return nil, nil, err
	}

	out := make(chan jetstream.InboxMessage, 64)
	go func() {
		defer close(out)
		for m := range s.Messages() {
			out <- jetstream.InboxMessage{Subject: m.Subject, Reply: m.Reply, Headers: m.Headers, Data: m.Data}
		}
	}()

	return out, func() { _ = s.Unsubscribe() }, nil
}

func (j *jetstreamConn) NewInbox() string {
	return subject.NewInbox(j.client.opts.InboxPrefix)
}
