package jetstream_test

import (
	"testing"

	"github.com/cpop/natscore/pkg/jetstream"
	"github.com/cpop/natscore/pkg/test"
)

type ConsumerSuite struct {
	*test.Suite
}

func TestConsumerSuite(t *testing.T) {
	test.Run(t, &ConsumerSuite{Suite: test.NewSuite()})
}

func (s *ConsumerSuite) TestCreateConsumerDurable() {
	conn := newFakeConn()
	conn.on("$JS.API.CONSUMER.CREATE.ORDERS.worker", map[string]any{
		"stream_name": "ORDERS",
		"name":        "worker",
		"config":      map[string]any{"durable_name": "worker"},
	})

	js := jetstream.New(conn)
	info, err := js.CreateConsumer(s.Ctx, "ORDERS", jetstream.ConsumerConfig{Durable: "worker"})
	s.NoError(err)
	s.Equal("ORDERS", info.Stream)
	s.Equal("worker", info.Name)
}

func (s *ConsumerSuite) TestCreateConsumerEphemeral() {
	conn := newFakeConn()
	conn.on("$JS.API.CONSUMER.CREATE.ORDERS", map[string]any{
		"stream_name": "ORDERS",
		"name":        "auto-1",
	})

	js := jetstream.New(conn)
	info, err := js.CreateConsumer(s.Ctx, "ORDERS", jetstream.ConsumerConfig{})
	s.NoError(err)
	s.Equal("auto-1", info.Name)
}

func (s *ConsumerSuite) TestCreateConsumerRejectsEmptyStream() {
	js := jetstream.New(newFakeConn())
	_, err := js.CreateConsumer(s.Ctx, "", jetstream.ConsumerConfig{})
	s.Error(err)
}

func (s *ConsumerSuite) TestDeleteConsumerRejectsEmptyNames() {
	js := jetstream.New(newFakeConn())
	s.Error(js.DeleteConsumer(s.Ctx, "", "worker"))
	s.Error(js.DeleteConsumer(s.Ctx, "ORDERS", ""))
}

func (s *ConsumerSuite) TestDeleteConsumerSucceeds() {
	conn := newFakeConn()
	conn.on("$JS.API.CONSUMER.DELETE.ORDERS.worker", map[string]any{})

	js := jetstream.New(conn)
	err := js.DeleteConsumer(s.Ctx, "ORDERS", "worker")
	s.NoError(err)
}

func (s *ConsumerSuite) TestGetConsumerInfoRejectsEmptyNames() {
	js := jetstream.New(newFakeConn())
	_, err := js.GetConsumerInfo(s.Ctx, "", "worker")
	s.Error(err)
	_, err = js.GetConsumerInfo(s.Ctx, "ORDERS", "")
	s.Error(err)
}

func (s *ConsumerSuite) TestGetConsumerInfoDecodes() {
	conn := newFakeConn()
	conn.on("$JS.API.CONSUMER.INFO.ORDERS.worker", map[string]any{
		"stream_name": "ORDERS",
		"name":        "worker",
		"num_pending": 5,
	})

	js := jetstream.New(conn)
	info, err := js.GetConsumerInfo(s.Ctx, "ORDERS", "worker")
	s.NoError(err)
	s.EqualValues(5, info.NumPending)
}

func (s *ConsumerSuite) TestBindReturnsUsableHandle() {
	js := jetstream.New(newFakeConn())
	consumer := js.Bind("ORDERS", "worker")
	s.NotNil(consumer)
}
