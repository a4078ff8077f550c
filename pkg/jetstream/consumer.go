package jetstream

import (
	"context"

	nerrors "github.com/cpop/natscore/pkg/errors"
)

type createConsumerRequest struct {
	StreamName string         `json:"stream_name"`
	Config     ConsumerConfig `json:"config"`
}

// CreateConsumer creates a pull consumer on stream. If cfg.Durable is
// empty the server assigns an ephemeral name.
func (c *Context) CreateConsumer(ctx context.Context, stream string, cfg ConsumerConfig) (*ConsumerInfo, error) {
	if stream == "" {
		return nil, nerrors.New(nerrors.KindStreamNameRequired, "stream name is required", nil)
	}
	subject := c.apiSubject("CONSUMER", "CREATE", stream, cfg.Durable)

	var info ConsumerInfo
	if err := c.request(ctx, subject, createConsumerRequest{StreamName: stream, Config: cfg}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteConsumer removes a durable consumer.
func (c *Context) DeleteConsumer(ctx context.Context, stream, consumer string) error {
	if stream == "" {
		return nerrors.New(nerrors.KindStreamNameRequired, "stream name is required", nil)
	}
	if consumer == "" {
		return nerrors.New(nerrors.KindConsumerNameRequired, "consumer name is required", nil)
	}
	return c.request(ctx, c.apiSubject("CONSUMER", "DELETE", stream, consumer), nil, nil)
}

// GetConsumerInfo fetches a consumer's current admin view.
func (c *Context) GetConsumerInfo(ctx context.Context, stream, consumer string) (*ConsumerInfo, error) {
	if stream == "" {
		return nil, nerrors.New(nerrors.KindStreamNameRequired, "stream name is required", nil)
	}
	if consumer == "" {
		return nil, nerrors.New(nerrors.KindConsumerNameRequired, "consumer name is required", nil)
	}
	var info ConsumerInfo
	if err := c.request(ctx, c.apiSubject("CONSUMER", "INFO", stream, consumer), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Consumer is a bound handle to an existing pull consumer, used to
// fetch batches of messages.
type Consumer struct {
	ctx      *Context
	stream   string
	consumer string
}

// Bind returns a handle for fetching from an existing consumer
// without re-issuing CONSUMER.INFO.
func (c *Context) Bind(stream, consumer string) *Consumer {
	return &Consumer{ctx: c, stream: stream, consumer: consumer}
}
