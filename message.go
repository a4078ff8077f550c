package natscore

import (
	"context"

	nerrors "github.com/cpop/natscore/pkg/errors"
	"github.com/cpop/natscore/pkg/headers"
	"github.com/cpop/natscore/pkg/protocol"
)

// Message is a delivered NATS message. Data is a plain byte slice
// rather than a pooled buffer: callers are free to retain it past the
// handler callback without racing a future reuse, at the cost of one
// allocation per delivery that the decoder already pays for internally.
type Message struct {
	Subject string
	Reply   string
	Headers *headers.Headers
	Data    []byte

	sid    string
	client *Client
}

// Respond publishes payload to the message's reply subject. It is a
// no-op error if the message carries no reply subject.
func (m *Message) Respond(ctx context.Context, payload []byte) error {
	if m.Reply == "" {
		return nerrors.New(nerrors.KindInvalidMessage, "message has no reply subject", nil)
	}
	return m.client.Publish(ctx, m.Reply, payload)
}

func messageFromMsg(d *protocol.Msg) *Message {
	return &Message{Subject: d.Subject, Reply: d.Reply, Data: d.Payload, sid: d.SID}
}

func messageFromHMsg(d *protocol.HMsg) *Message {
	return &Message{Subject: d.Subject, Reply: d.Reply, Headers: d.Headers, Data: d.Payload, sid: d.SID}
}
