package jetstream

import (
	"context"
	"encoding/json"
	"time"
)

// Fetch pulls up to batch messages from the consumer, waiting no
// longer than maxWait. It constructs a transient inbox, subscribes,
// publishes a NextMessageRequest to the consumer's MSG.NEXT subject
// with the inbox as the reply, and collects messages until the batch
// is full, the deadline passes, or a terminal status header (404,
// 408, or any status >= 400) arrives. Messages whose reply subject
// does not parse as a JetStream ack subject are skipped silently.
func (c *Consumer) Fetch(ctx context.Context, batch int, maxWait time.Duration) ([]*Message, error) {
	conn := c.ctx.requester
	inbox := conn.NewInbox()

	msgs, unsubscribe, err := conn.Subscribe(ctx, inbox)
	if err != nil {
		return nil, err
	}
	defer unsubscribe()

	req := NextMessageRequest{Batch: batch, ExpiresNs: int64(maxWait)}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	subject := c.ctx.apiSubject("CONSUMER", "MSG", "NEXT", c.stream, c.consumer)
	if err := conn.Publish(ctx, subject, inbox, body, nil); err != nil {
		return nil, err
	}

	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()

	var out []*Message
	for len(out) < batch {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-deadline.C:
			return out, nil
		case m, ok := <-msgs:
			if !ok {
				return out, nil
			}
			if m.Headers != nil && isTerminalStatus(m.Headers.Status) {
				return out, nil
			}
			meta, ok := ParseAckSubject(m.Reply)
			if !ok {
				continue
			}
			out = append(out, &Message{
				Subject:  m.Subject,
				Reply:    m.Reply,
				Headers:  m.Headers,
				Data:     m.Data,
				Metadata: meta,
				conn:     conn,
			})
		}
	}
	return out, nil
}

func isTerminalStatus(status int) bool {
	return status == 404 || status == 408 || status >= 400
}
