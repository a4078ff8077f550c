package jetstream

import (
	"context"

	nerrors "github.com/cpop/natscore/pkg/errors"
)

type createStreamRequest = StreamConfig

type purgeStreamRequest struct {
	Subject string `json:"filter,omitempty"`
}

type purgeStreamResponse struct {
	Purged uint64 `json:"purged"`
}

type getMsgRequest struct {
	Seq     uint64 `json:"seq,omitempty"`
	LastBy  string `json:"last_by_subj,omitempty"`
}

// StoredMessage is a single message retrieved via GetMessage.
type StoredMessage struct {
	Subject string            `json:"subject"`
	Seq     uint64            `json:"seq"`
	Data    []byte            `json:"data"`
	Headers map[string]string `json:"-"`
}

type getMsgResponse struct {
	Message struct {
		Subject string `json:"subject"`
		Seq     uint64 `json:"seq"`
		Data    []byte `json:"data"`
	} `json:"message"`
}

// CreateStream creates a new stream.
func (c *Context) CreateStream(ctx context.Context, cfg StreamConfig) (*StreamInfo, error) {
	if cfg.Name == "" {
		return nil, nerrors.New(nerrors.KindStreamNameRequired, "stream name is required", nil)
	}
	var info StreamInfo
	if err := c.request(ctx, c.apiSubject("STREAM", "CREATE", cfg.Name), createStreamRequest(cfg), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// UpdateStream updates an existing stream's configuration.
func (c *Context) UpdateStream(ctx context.Context, cfg StreamConfig) (*StreamInfo, error) {
	if cfg.Name == "" {
		return nil, nerrors.New(nerrors.KindStreamNameRequired, "stream name is required", nil)
	}
	var info StreamInfo
	if err := c.request(ctx, c.apiSubject("STREAM", "UPDATE", cfg.Name), createStreamRequest(cfg), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteStream removes a stream and all its messages.
func (c *Context) DeleteStream(ctx context.Context, name string) error {
	if name == "" {
		return nerrors.New(nerrors.KindStreamNameRequired, "stream name is required", nil)
	}
	return c.request(ctx, c.apiSubject("STREAM", "DELETE", name), nil, nil)
}

// GetStreamInfo fetches a stream's current admin view.
func (c *Context) GetStreamInfo(ctx context.Context, name string) (*StreamInfo, error) {
	if name == "" {
		return nil, nerrors.New(nerrors.KindStreamNameRequired, "stream name is required", nil)
	}
	var info StreamInfo
	if err := c.request(ctx, c.apiSubject("STREAM", "INFO", name), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// PurgeStream deletes all messages from a stream, optionally filtered
// to one subject, returning the number of messages removed.
func (c *Context) PurgeStream(ctx context.Context, name, subjectFilter string) (uint64, error) {
	if name == "" {
		return 0, nerrors.New(nerrors.KindStreamNameRequired, "stream name is required", nil)
	}
	var resp purgeStreamResponse
	if err := c.request(ctx, c.apiSubject("STREAM", "PURGE", name), purgeStreamRequest{Subject: subjectFilter}, &resp); err != nil {
		return 0, err
	}
	return resp.Purged, nil
}

// GetMessage fetches a single stored message by sequence number.
func (c *Context) GetMessage(ctx context.Context, stream string, seq uint64) (*StoredMessage, error) {
	if stream == "" {
		return nil, nerrors.New(nerrors.KindStreamNameRequired, "stream name is required", nil)
	}
	var resp getMsgResponse
	if err := c.request(ctx, c.apiSubject("STREAM", "MSG", "GET", stream), getMsgRequest{Seq: seq}, &resp); err != nil {
		return nil, err
	}
	return &StoredMessage{Subject: resp.Message.Subject, Seq: resp.Message.Seq, Data: resp.Message.Data}, nil
}
