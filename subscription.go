package natscore

import (
	"github.com/cpop/natscore/pkg/protocol"
)

// Subscription is a live interest registration returned by
// Client.Subscribe. Messages arrive on Messages() until Unsubscribe is
// called or the owning Client closes.
type Subscription struct {
	sid     string
	subject string
	queue   string
	ch      chan *Message
	client  *Client
}

// Subject returns the subscribed subject pattern.
func (s *Subscription) Subject() string { return s.subject }

// Queue returns the queue group name, or "" if this is not a queue
// subscription.
func (s *Subscription) Queue() string { return s.queue }

// Messages returns the channel messages are delivered on.
func (s *Subscription) Messages() <-chan *Message { return s.ch }

// Unsubscribe emits UNSUB and removes the subscription immediately.
func (s *Subscription) Unsubscribe() error {
	s.client.mu.Lock()
	h := s.client.handler
	s.client.mu.Unlock()
	if h != nil {
		_ = h.WriteFrame(protocol.EncodeUnsub(s.sid, 0))
	}
	s.client.subs.Unregister(s.sid)
	return nil
}

// AutoUnsubscribe emits UNSUB <sid> <max> so the server (and the local
// multiplexer) finish the subscription once max messages in total have
// been delivered on it, counting deliveries made before this call.
func (s *Subscription) AutoUnsubscribe(max int) error {
	s.client.mu.Lock()
	h := s.client.handler
	s.client.mu.Unlock()
	if h == nil {
		return nil
	}
	if err := h.WriteFrame(protocol.EncodeUnsub(s.sid, max)); err != nil {
		return err
	}
	s.client.subs.SetAutoUnsubscribe(s.sid, uint64(max))
	return nil
}
