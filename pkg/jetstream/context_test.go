package jetstream_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/cpop/natscore/pkg/headers"
	"github.com/cpop/natscore/pkg/jetstream"
	"github.com/cpop/natscore/pkg/test"
)

// fakeConn is an in-memory stand-in for the Client facade, letting
// jetstream tests run without a real connection.
type fakeConn struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	inboxSeq  int

	subs map[string]chan jetstream.InboxMessage
}

type fakeResponse struct {
	headers *headers.Headers
	body    any
}

func newFakeConn() *fakeConn {
	return &fakeConn{responses: make(map[string]fakeResponse), subs: make(map[string]chan jetstream.InboxMessage)}
}

func (f *fakeConn) on(subject string, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[subject] = fakeResponse{body: body}
}

func (f *fakeConn) onStatus(subject string, status int, description string) {
	h := headers.New()
	h.Status = status
	h.Description = description
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[subject] = fakeResponse{headers: h, body: map[string]any{}}
}

func (f *fakeConn) Request(ctx context.Context, subject string, payload []byte, hdr *headers.Headers, timeout time.Duration) (*jetstream.Response, error) {
	f.mu.Lock()
	resp, ok := f.responses[subject]
	f.mu.Unlock()
	if !ok {
		return &jetstream.Response{Data: []byte("{}")}, nil
	}
	data, _ := json.Marshal(resp.body)
	return &jetstream.Response{Headers: resp.headers, Data: data}, nil
}

func (f *fakeConn) Publish(ctx context.Context, subject, reply string, payload []byte, hdr *headers.Headers) error {
	return nil
}

func (f *fakeConn) Subscribe(ctx context.Context, subject string) (<-chan jetstream.InboxMessage, func(), error) {
	ch := make(chan jetstream.InboxMessage, 8)
	f.mu.Lock()
	f.subs[subject] = ch
	f.mu.Unlock()
	return ch, func() {}, nil
}

func (f *fakeConn) NewInbox() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inboxSeq++
	return "_INBOX.fake." + string(rune('a'+f.inboxSeq))
}

type ContextSuite struct {
	*test.Suite
}

func TestContextSuite(t *testing.T) {
	test.Run(t, &ContextSuite{Suite: test.NewSuite()})
}

func (s *ContextSuite) TestCreateStreamDecodesInfo() {
	conn := newFakeConn()
	conn.on("$JS.API.STREAM.CREATE.ORDERS", map[string]any{
		"config": map[string]any{"name": "ORDERS"},
		"state":  map[string]any{"messages": 0},
	})

	js := jetstream.New(conn)
	info, err := js.CreateStream(s.Ctx, jetstream.StreamConfig{Name: "ORDERS"})
	s.NoError(err)
	s.Equal("ORDERS", info.Config.Name)
}

func (s *ContextSuite) TestNotEnabledOn503() {
	conn := newFakeConn()
	conn.onStatus("$JS.API.STREAM.CREATE.ORDERS", 503, "jetstream not enabled")

	js := jetstream.New(conn)
	_, err := js.CreateStream(s.Ctx, jetstream.StreamConfig{Name: "ORDERS"})
	s.Error(err)
}

func (s *ContextSuite) TestApiErrorSurfaced() {
	conn := newFakeConn()
	conn.on("$JS.API.STREAM.INFO.MISSING", map[string]any{
		"error": map[string]any{"code": 404, "err_code": 10059, "description": "stream not found"},
	})

	js := jetstream.New(conn)
	_, err := js.GetStreamInfo(s.Ctx, "MISSING")
	s.Error(err)
	s.Contains(err.Error(), "stream not found")
}

func (s *ContextSuite) TestEmptyStreamNameRejectedLocally() {
	js := jetstream.New(newFakeConn())
	_, err := js.CreateStream(s.Ctx, jetstream.StreamConfig{})
	s.Error(err)
}

func (s *ContextSuite) TestCustomAPIPrefix() {
	conn := newFakeConn()
	conn.on("CUSTOM.API.STREAM.CREATE.X", map[string]any{"config": map[string]any{"name": "X"}})

	js := jetstream.New(conn, jetstream.WithAPIPrefix("CUSTOM.API"))
	info, err := js.CreateStream(s.Ctx, jetstream.StreamConfig{Name: "X"})
	s.NoError(err)
	s.Equal("X", info.Config.Name)
}
