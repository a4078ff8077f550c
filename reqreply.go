package natscore

import (
	"context"
	"sync"
	"time"

	nerrors "github.com/cpop/natscore/pkg/errors"
	"github.com/cpop/natscore/pkg/headers"
	"github.com/cpop/natscore/pkg/protocol"
	"github.com/cpop/natscore/pkg/subject"
)

// pendingResult is what a pending request's sink channel carries once
// its reply subject sees traffic, or once it is failed out of band
// (timeout, cancellation, or connection close).
type pendingResult struct {
	msg *Message
	err error
}

// pendingMap tracks in-flight requests keyed by their exact minted
// reply subject (component H). A single shared inbox subscription
// ("<prefix>.>") feeds every entry: the connection dispatch loop looks
// up the inbound subject here before ever consulting the subscription
// multiplexer.
type pendingMap struct {
	mu sync.Mutex
	m  map[string]chan pendingResult
}

func newPendingMap() *pendingMap {
	return &pendingMap{m: make(map[string]chan pendingResult)}
}

func (p *pendingMap) register(subj string) chan pendingResult {
	ch := make(chan pendingResult, 1)
	p.mu.Lock()
	p.m[subj] = ch
	p.mu.Unlock()
	return ch
}

func (p *pendingMap) remove(subj string) {
	p.mu.Lock()
	delete(p.m, subj)
	p.mu.Unlock()
}

// complete claims the pending entry for subject, if any, translating a
// 503 No Responders status into KindNoResponders.
func (p *pendingMap) complete(subj string, msg *Message) {
	p.mu.Lock()
	ch, ok := p.m[subj]
	if ok {
		delete(p.m, subj)
	}
	p.mu.Unlock()
	if !ok {
		return
	}

	if msg.Headers != nil && msg.Headers.Status == headers.StatusNoResponders {
		ch <- pendingResult{err: nerrors.New(nerrors.KindNoResponders, "no responders available for "+subj, nil)}
		return
	}
	ch <- pendingResult{msg: msg}
}

// failAll delivers err to every pending entry and clears the map, used
// when the client closes with requests still outstanding.
func (p *pendingMap) failAll(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for subj, ch := range p.m {
		ch <- pendingResult{err: err}
		delete(p.m, subj)
	}
}

// Request sends payload to subject and blocks for a single reply,
// using timeout if positive or the client's configured default
// request timeout otherwise.
func (c *Client) Request(ctx context.Context, subj string, payload []byte, timeout time.Duration) (*Message, error) {
	return c.requestRaw(ctx, subj, payload, nil, timeout)
}

func (c *Client) requestRaw(ctx context.Context, subj string, payload []byte, hdr *headers.Headers, timeout time.Duration) (*Message, error) {
	if err := c.ensureInboxSubscription(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = c.opts.RequestTimeout
	}

	replySubj := subject.NewInbox(c.opts.InboxPrefix)
	resultCh := c.pending.register(replySubj)
	defer c.pending.remove(replySubj)

	if err := c.publishRaw(ctx, subj, replySubj, payload, hdr); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		return res.msg, nil
	case <-timer.C:
		return nil, nerrors.New(nerrors.KindTimeout, "request timed out: "+subj, nil)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closeCtx.Done():
		return nil, nerrors.New(nerrors.KindClosed, "connection closed", nil)
	}
}

// ensureInboxSubscription lazily subscribes once, for the lifetime of
// the Client, to "<prefix>.>" so every minted reply subject is
// reachable. The sid is resent automatically on every reconnect by
// resendInboxSubscription.
func (c *Client) ensureInboxSubscription() error {
	c.mu.Lock()
	if c.inboxSID != "" {
		c.mu.Unlock()
		return nil
	}
	sid := c.subs.GenerateSID()
	c.inboxSID = sid
	h := c.handler
	prefix := c.opts.InboxPrefix
	c.mu.Unlock()

	if h == nil {
		return nerrors.New(nerrors.KindServerError, "Not connected", nil)
	}
	return h.WriteFrame(protocol.EncodeSub(prefix+".>", "", sid))
}
