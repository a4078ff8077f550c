package conn_test

import (
	"context"
	"testing"
	"time"

	"github.com/cpop/natscore/pkg/conn"
	"github.com/cpop/natscore/pkg/conn/testserver"
	"github.com/cpop/natscore/pkg/protocol"
	"github.com/cpop/natscore/pkg/test"
)

type HandlerSuite struct {
	*test.Suite
}

func TestHandlerSuite(t *testing.T) {
	test.Run(t, &HandlerSuite{Suite: test.NewSuite()})
}

func (s *HandlerSuite) connectTo(srv *testserver.Server) *conn.ConnectResult {
	u, err := conn.ParseServerURL(srv.Addr())
	s.Require().NoError(err)

	info := protocol.ConnectInfo{Headers: true, NoResponders: true}
	res, err := conn.Connect(s.Ctx, u, conn.TLSOptions{}, func(string) (protocol.ConnectInfo, error) { return info, nil }, 30*time.Second, 2, nil)
	s.Require().NoError(err)
	return res
}

func (s *HandlerSuite) TestConnectReceivesInfoAndOpensHandler() {
	srv, err := testserver.New()
	s.Require().NoError(err)
	defer srv.Close()

	res := s.connectTo(srv)
	defer res.Handler.Close()

	s.Equal("testserver", res.Info.ServerID)

	select {
	case ev := <-res.Handler.Events():
		s.Equal(conn.Opened, ev.Kind)
	case <-time.After(time.Second):
		s.Fail("timed out waiting for Opened event")
	}
}

func (s *HandlerSuite) TestPublishSubscribeRoundTrip() {
	srv, err := testserver.New()
	s.Require().NoError(err)
	defer srv.Close()

	res := s.connectTo(srv)
	defer res.Handler.Close()

	drainOpened(res)

	s.Require().NoError(res.Handler.WriteFrame(protocol.EncodeSub("greet.hello", "", "1")))
	time.Sleep(20 * time.Millisecond) // let the fake server register the SUB

	s.Require().NoError(res.Handler.WriteFrame(protocol.EncodePub("greet.hello", "", []byte("hi there"))))

	msg := waitForMessage(s, res)
	s.Equal("greet.hello", msg.Subject)
	s.Equal([]byte("hi there"), msg.Payload)
}

func (s *HandlerSuite) TestTLSRequiredWithoutClientTLSFails() {
	srv, err := testserver.New()
	s.Require().NoError(err)
	defer srv.Close()
	srv.TLSRequired = true

	u, err := conn.ParseServerURL(srv.Addr())
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(s.Ctx, time.Second)
	defer cancel()

	_, err = conn.Connect(ctx, u, conn.TLSOptions{}, noAuthConnectInfo, 30*time.Second, 2, nil)
	s.Error(err)
}

func (s *HandlerSuite) TestConnectCancellable() {
	ctx, cancel := context.WithCancel(s.Ctx)
	cancel()

	_, err := conn.Connect(ctx, &conn.ServerURL{Scheme: "nats", Host: "127.0.0.1:1"}, conn.TLSOptions{}, noAuthConnectInfo, time.Second, 2, nil)
	s.Error(err)
}

func noAuthConnectInfo(string) (protocol.ConnectInfo, error) {
	return protocol.ConnectInfo{}, nil
}

func drainOpened(res *conn.ConnectResult) {
	select {
	case <-res.Handler.Events():
	case <-time.After(time.Second):
	}
}

func waitForMessage(s *HandlerSuite, res *conn.ConnectResult) *protocol.Msg {
	for i := 0; i < 10; i++ {
		select {
		case ev := <-res.Handler.Events():
			if ev.Kind == conn.Message && ev.Decoded.Op == protocol.OpMsg {
				return ev.Decoded.Msg
			}
		case <-time.After(time.Second):
			s.Fail("timed out waiting for MSG")
			return nil
		}
	}
	s.Fail("did not see a MSG event")
	return nil
}
