package headers_test

import (
	"testing"

	"github.com/cpop/natscore/pkg/headers"
	"github.com/cpop/natscore/pkg/test"
)

type HeadersSuite struct {
	*test.Suite
}

func TestHeadersSuite(t *testing.T) {
	test.Run(t, &HeadersSuite{Suite: test.NewSuite()})
}

func (s *HeadersSuite) TestSetGetCaseInsensitive() {
	h := headers.New()
	h.Set("Content-Type", "text/plain")
	s.Equal("text/plain", h.Get("content-type"))
	s.Equal("text/plain", h.Get("CONTENT-TYPE"))
}

func (s *HeadersSuite) TestDuplicatesPreserved() {
	h := headers.New()
	h.Add("X-Trace", "a")
	h.Add("X-Trace", "b")
	s.Equal([]string{"a", "b"}, h.Values("x-trace"))
	s.Equal(2, h.Len())
}

func (s *HeadersSuite) TestSetReplacesAllValues() {
	h := headers.New()
	h.Add("X-Trace", "a")
	h.Add("X-Trace", "b")
	h.Set("X-Trace", "c")
	s.Equal([]string{"c"}, h.Values("x-trace"))
}

func (s *HeadersSuite) TestDel() {
	h := headers.New()
	h.Add("A", "1")
	h.Add("B", "2")
	h.Del("a")
	s.Equal("", h.Get("A"))
	s.Equal("2", h.Get("B"))
}

func (s *HeadersSuite) TestRoundTripPreservesOrderAndDuplicates() {
	h := headers.New()
	h.Add("Nats-Msg-Id", "1")
	h.Add("X-Trace", "a")
	h.Add("X-Trace", "b")

	block := h.Encode()
	decoded, err := headers.Decode(block)
	s.NoError(err)

	var names []string
	var values []string
	decoded.Range(func(n, v string) {
		names = append(names, n)
		values = append(values, v)
	})
	s.Equal([]string{"Nats-Msg-Id", "X-Trace", "X-Trace"}, names)
	s.Equal([]string{"1", "a", "b"}, values)
}

func (s *HeadersSuite) TestEncodeDecodeStatusLine() {
	h := headers.New()
	h.Status = headers.StatusNoResponders
	h.Description = "no responders"

	block := h.Encode()
	s.Contains(string(block), "NATS/1.0 503 no responders")

	decoded, err := headers.Decode(block)
	s.NoError(err)
	s.Equal(503, decoded.Status)
	s.Equal("no responders", decoded.Description)
}

func (s *HeadersSuite) TestDecodeRejectsMissingVersionLine() {
	_, err := headers.Decode([]byte("X: 1\r\n\r\n"))
	s.Error(err)
}

func (s *HeadersSuite) TestDecodeDropsEmptyNamesAndTrimsWhitespace() {
	block := []byte("NATS/1.0\r\n  X-A  :   value1  \r\n: ignored\r\n\r\n")
	decoded, err := headers.Decode(block)
	s.NoError(err)
	s.Equal("value1", decoded.Get("X-A"))
	s.Equal(1, decoded.Len())
}

func (s *HeadersSuite) TestCloneIsIndependent() {
	h := headers.New()
	h.Add("A", "1")
	c := h.Clone()
	c.Add("A", "2")
	s.Equal(1, h.Len())
	s.Equal(2, c.Len())
}
