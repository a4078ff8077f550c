package protocol_test

import (
	"strconv"
	"testing"

	"github.com/cpop/natscore/pkg/headers"
	"github.com/cpop/natscore/pkg/protocol"
	"github.com/cpop/natscore/pkg/test"
)

type EncodeSuite struct {
	*test.Suite
}

func TestEncodeSuite(t *testing.T) {
	test.Run(t, &EncodeSuite{Suite: test.NewSuite()})
}

func (s *EncodeSuite) TestEncodePing() {
	s.Equal("PING\r\n", string(protocol.EncodePing()))
}

func (s *EncodeSuite) TestEncodePong() {
	s.Equal("PONG\r\n", string(protocol.EncodePong()))
}

func (s *EncodeSuite) TestEncodeSubWithoutQueue() {
	s.Equal("SUB foo.bar 3\r\n", string(protocol.EncodeSub("foo.bar", "", "3")))
}

func (s *EncodeSuite) TestEncodeSubWithQueue() {
	s.Equal("SUB foo.bar workers 3\r\n", string(protocol.EncodeSub("foo.bar", "workers", "3")))
}

func (s *EncodeSuite) TestEncodeUnsub() {
	s.Equal("UNSUB 3\r\n", string(protocol.EncodeUnsub("3", 0)))
	s.Equal("UNSUB 3 5\r\n", string(protocol.EncodeUnsub("3", 5)))
}

func (s *EncodeSuite) TestEncodePub() {
	got := protocol.EncodePub("foo", "", []byte("hello"))
	s.Equal("PUB foo 5\r\nhello\r\n", string(got))
}

func (s *EncodeSuite) TestEncodePubWithReply() {
	got := protocol.EncodePub("foo", "reply.1", []byte("hi"))
	s.Equal("PUB foo reply.1 2\r\nhi\r\n", string(got))
}

func (s *EncodeSuite) TestEncodeHPub() {
	h := headers.New()
	h.Add("X-Trace", "1")
	payload := []byte("hi")

	got := protocol.EncodeHPub("foo", "", h, payload)
	hdrBlock := h.Encode()
	want := "HPUB foo " + strconv.Itoa(len(hdrBlock)) + " " + strconv.Itoa(len(hdrBlock)+len(payload)) + "\r\n" + string(hdrBlock) + "hi\r\n"
	s.Equal(want, string(got))
}

func (s *EncodeSuite) TestEncodeConnect() {
	info := protocol.ConnectInfo{Protocol: 1, Headers: true, NoResponders: true, Echo: true}
	b, err := protocol.EncodeConnect(info)
	s.NoError(err)
	s.Contains(string(b), "CONNECT {")
	s.True(len(b) > len("CONNECT \r\n"))
}
