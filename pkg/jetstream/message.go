package jetstream

import (
	"context"
	"strconv"
	"strings"
	"time"

	nerrors "github.com/cpop/natscore/pkg/errors"
	"github.com/cpop/natscore/pkg/headers"
)

// MessageMetadata is parsed from a JetStream delivery's ack subject:
// $JS.ACK.<stream>.<consumer>.<num_delivered>.<stream_seq>.
// <consumer_seq>.<timestamp_ns>.<num_pending>.
type MessageMetadata struct {
	Stream        string
	Consumer      string
	NumDelivered  uint64
	StreamSeq     uint64
	ConsumerSeq   uint64
	TimestampNs   int64
	NumPending    uint64
}

// ParseAckSubject parses a reply subject as JetStream ack metadata. It
// reports ok=false for anything that isn't a well-formed ack subject,
// so callers can skip non-JetStream deliveries silently.
func ParseAckSubject(subject string) (MessageMetadata, bool) {
	tok := strings.Split(subject, ".")
	if len(tok) < 9 || tok[0] != "$JS" || tok[1] != "ACK" {
		return MessageMetadata{}, false
	}

	// Layout: $JS ACK <stream> <consumer> <numDelivered> <streamSeq>
	// <consumerSeq> <timestampNs> <numPending> [domain hash, optional
	// trailing tokens on newer servers, ignored here].
	nd, err1 := strconv.ParseUint(tok[4], 10, 64)
	ss, err2 := strconv.ParseUint(tok[5], 10, 64)
	cs, err3 := strconv.ParseUint(tok[6], 10, 64)
	ts, err4 := strconv.ParseInt(tok[7], 10, 64)
	np, err5 := strconv.ParseUint(tok[8], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return MessageMetadata{}, false
	}

	return MessageMetadata{
		Stream:       tok[2],
		Consumer:     tok[3],
		NumDelivered: nd,
		StreamSeq:    ss,
		ConsumerSeq:  cs,
		TimestampNs:  ts,
		NumPending:   np,
	}, true
}

// ackPublisher is the minimal capability Message needs to send an
// ack-control message back to the reply subject.
type ackPublisher interface {
	Publish(ctx context.Context, subject, reply string, payload []byte, hdr *headers.Headers) error
}

// Message is a JetStream-delivered message: the underlying NATS
// message plus its parsed ack-subject metadata.
type Message struct {
	Subject  string
	Reply    string
	Headers  *headers.Headers
	Data     []byte
	Metadata MessageMetadata

	conn ackPublisher
}

func (m *Message) ackControl(ctx context.Context, payload []byte) error {
	if m.Reply == "" {
		return nerrors.New(nerrors.KindInvalidAck, "No reply subject", nil)
	}
	return m.conn.Publish(ctx, m.Reply, "", payload, nil)
}

// Ack acknowledges successful processing.
func (m *Message) Ack(ctx context.Context) error {
	return m.ackControl(ctx, []byte("+ACK"))
}

// Nak negatively acknowledges the message, asking for redelivery,
// optionally after delay.
func (m *Message) Nak(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return m.ackControl(ctx, []byte("-NAK"))
	}
	return m.ackControl(ctx, []byte(`-NAK {"delay": `+strconv.FormatInt(int64(delay), 10)+`}`))
}

// InProgress tells the server the message is still being worked on,
// resetting its ack-wait timer without acknowledging it.
func (m *Message) InProgress(ctx context.Context) error {
	return m.ackControl(ctx, []byte("+WPI"))
}

// Term tells the server to stop redelivering the message.
func (m *Message) Term(ctx context.Context) error {
	return m.ackControl(ctx, []byte("+TERM"))
}
