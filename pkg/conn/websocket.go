package conn

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	nerrors "github.com/cpop/natscore/pkg/errors"
)

// wsConn adapts a *websocket.Conn to io.ReadWriteCloser by framing the
// NATS text protocol inside binary WebSocket messages, buffering
// partially-consumed frames between Read calls.
type wsConn struct {
	ws *websocket.Conn

	readMu sync.Mutex
	buf    []byte

	writeMu sync.Mutex
}

// DialWebSocket dials a wss:// server URL and returns a stream-shaped
// wrapper suitable for feeding straight into pkg/protocol's Decoder.
func DialWebSocket(ctx context.Context, u *ServerURL) (io.ReadWriteCloser, error) {
	dialer := websocket.Dialer{}
	target := "wss://" + u.Host
	ws, _, err := dialer.DialContext(ctx, target, http.Header{})
	if err != nil {
		return nil, nerrors.New(nerrors.KindConnectionRefused, "websocket dial failed: "+target, err)
	}
	return &wsConn{ws: ws}, nil
}

func (c *wsConn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for len(c.buf) == 0 {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		c.buf = data
	}
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, nil
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}
