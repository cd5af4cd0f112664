// Package transport wraps websocket connections with the message codec
// and write serialization the protocol requires: one ordered stream per
// direction, framed JSON envelopes.
package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/fairway/internal/protocol"
)

const (
	writeTimeout = 10 * time.Second
	closeTimeout = time.Second
)

// Conn is a message-oriented connection. Send is safe for concurrent
// use; Read must be called from a single goroutine.
type Conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex
	closed  bool
}

// Upgrader is the server-side websocket upgrader
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin checking is the responsibility of the fronting proxy
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewConn wraps an established websocket connection
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Dial connects to a websocket endpoint
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewConn(ws), nil
}

// Send encodes and writes one message
func (c *Conn) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// ReadRaw blocks for the next message frame. Decoding is left to the
// caller since each channel direction has its own message table.
func (c *Conn) ReadRaw() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

// Close sends a close frame with the given reason and tears down the
// connection. Safe to call more than once.
func (c *Conn) Close(reason string) error {
	c.writeMu.Lock()
	if c.closed {
		c.writeMu.Unlock()
		return nil
	}
	c.closed = true

	frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = c.ws.SetWriteDeadline(time.Now().Add(closeTimeout))
	_ = c.ws.WriteMessage(websocket.CloseMessage, frame)
	c.writeMu.Unlock()

	return c.ws.Close()
}
