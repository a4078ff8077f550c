// Package natscore is a from-scratch NATS client: connection lifecycle
// and reconnection, the text wire protocol, subscription multiplexing,
// request/reply, and a JetStream request layer for stream and consumer
// administration plus pull-based consumption.
//
// A minimal round trip:
//
//	c, err := natscore.Connect(ctx, natscore.WithServers("nats://localhost:4222"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
//
//	sub, err := c.Subscribe(ctx, "orders.new", "")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := c.Publish(ctx, "orders.new", []byte("hello")); err != nil {
//		log.Fatal(err)
//	}
//	msg := <-sub.Messages()
package natscore
